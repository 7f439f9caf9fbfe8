// Package pattern compiles caller-supplied glob-style patterns into path
// matchers. The dialect is deliberately flat: '*' matches any sequence of
// characters including path separators, and '{a,b}' expands to
// alternatives, so '*.{go,md}' matches any path ending in .go or .md.
package pattern

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Matcher is a compiled pattern. The zero value matches nothing.
type Matcher struct {
	re *regexp.Regexp
}

// Compile translates a glob-style pattern into a Matcher. A pattern that
// fails to compile yields a matcher that matches nothing rather than an
// error, so one bad pattern cannot abort a whole run.
func Compile(pat string, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	re, err := regexp.Compile(toRegex(pat))
	if err != nil {
		logger.Warn("Pattern failed to compile, it will match nothing",
			zap.String("pattern", pat),
			zap.Error(err))
		return &Matcher{}
	}
	return &Matcher{re: re}
}

// Matches reports whether path matches the compiled pattern.
func (m *Matcher) Matches(path string) bool {
	if m.re == nil {
		return false
	}
	return m.re.MatchString(path)
}

// toRegex builds the anchored suffix regex for a pattern. The grammar
// is tiny: literal runs, the flat '*' wildcard, '{'/'}' alternation
// groups with ',' separators, and whitespace (dropped). The result is
// anchored as a suffix match: a pattern only needs to match the tail
// of a path, never the whole path.
func toRegex(pat string) string {
	var b strings.Builder
	b.WriteString(".*")
	for _, r := range pat {
		switch r {
		case '*':
			b.WriteString(".*")
		case '{':
			b.WriteByte('(')
		case '}':
			b.WriteByte(')')
		case ',':
			b.WriteByte('|')
		case '.':
			b.WriteString(`\.`)
		case ' ', '\t', '\n', '\r':
			// Whitespace in patterns is stripped before compilation.
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('$')
	return b.String()
}
