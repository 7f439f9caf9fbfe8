// Package ignore implements gitignore-style rule matching and the layered
// ignore policy used during file collection.
package ignore

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Rule encapsulates a compiled regular expression pattern, a negation
// flag, and metadata about the pattern's origin.
type Rule struct {
	Pattern *regexp.Regexp // Compiled regular expression for the pattern.
	Negate  bool           // Indicates if the pattern is a negation (starts with '!').
	Line    string         // Original pattern line.
	LineNo  int            // Line number in the source (1-based).
}

// RuleSet is one ordered collection of ignore rules, typically loaded
// from a single ignore file. An empty RuleSet matches nothing.
type RuleSet struct {
	Rules  []*Rule
	logger *zap.Logger
}

// NewRuleSet initializes an empty RuleSet with an optional logger.
func NewRuleSet(logger *zap.Logger) *RuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleSet{logger: logger}
}

// LoadFile reads an ignore file and returns its compiled RuleSet. A
// missing file is not an error: it yields an empty, always-permissive
// rule set.
func LoadFile(path string, logger *zap.Logger) (*RuleSet, error) {
	rs := NewRuleSet(logger)
	if path == "" {
		return rs, nil
	}
	if err := rs.CompileFile(path); err != nil {
		if os.IsNotExist(err) {
			return NewRuleSet(logger), nil
		}
		return nil, err
	}
	return rs, nil
}

// CompileLines compiles a set of ignore pattern lines and appends them
// to the RuleSet.
func (rs *RuleSet) CompileLines(lines ...string) {
	for i, line := range lines {
		pattern, negate := parsePatternLine(line)
		if pattern != nil {
			rs.Rules = append(rs.Rules, &Rule{
				Pattern: pattern,
				Negate:  negate,
				Line:    line,
				LineNo:  i + 1, // 1-based line numbering.
			})
		}
	}
}

// CompileFile reads an ignore file, parses its lines, and appends them
// to the RuleSet.
func (rs *RuleSet) CompileFile(fpath string) error {
	content, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	rs.CompileLines(lines...)
	rs.logger.Debug("Compiled ignore rules",
		zap.String("filePath", fpath),
		zap.Int("ruleCount", len(rs.Rules)))
	return nil
}

// Matches checks if a path matches the rule set. The last matching rule
// wins, so a later negation can re-include a path excluded earlier.
func (rs *RuleSet) Matches(path string, isDir bool) bool {
	normalized := filepath.ToSlash(path)
	if isDir && !strings.HasSuffix(normalized, "/") {
		normalized += "/"
	}

	matches := false
	for _, rule := range rs.Rules {
		if rule.Pattern.MatchString(normalized) {
			matches = !rule.Negate
		}
	}
	return matches
}

// parsePatternLine processes a line from an ignore file into a compiled
// regex and a negation flag. Returns nil for comments and blank lines.
func parsePatternLine(line string) (*regexp.Regexp, bool) {
	trimmedLine := strings.TrimSpace(line)

	// Ignore empty lines and comments.
	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return nil, false
	}

	// Check for negation.
	negate := false
	if strings.HasPrefix(trimmedLine, "!") {
		negate = true
		trimmedLine = strings.TrimPrefix(trimmedLine, "!")
	}

	// Handle escaped leading `#` and `!`.
	if strings.HasPrefix(trimmedLine, "\\#") || strings.HasPrefix(trimmedLine, "\\!") {
		trimmedLine = trimmedLine[1:]
	}

	// Escape special characters and convert wildcards. The '**'
	// segments are tokenized first so wildcardToRegex cannot rewrite
	// the '*' inside their regex expansions.
	escapedLine := escapeSpecialChars(trimmedLine)
	escapedLine = handleDoubleStarPatterns(escapedLine)
	escapedLine = wildcardToRegex(escapedLine)
	escapedLine = expandDoubleStarTokens(escapedLine)
	escapedLine = anchorPattern(escapedLine, trimmedLine)

	compiledRegex, err := regexp.Compile(escapedLine)
	if err != nil {
		return nil, false
	}

	return compiledRegex, negate
}

// escapeSpecialChars escapes regex special characters except for `*`, `?`, and `/`.
func escapeSpecialChars(pattern string) string {
	specialChars := `.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}

// Placeholder tokens for '**' segments. They hold the spot through the
// single-star conversion; expandDoubleStarTokens swaps in the real
// regex fragments afterwards.
const (
	tokenDoubleStarMiddle   = "\x00dsm\x00"
	tokenDoubleStarTrailing = "\x00dst\x00"
	tokenDoubleStarLeading  = "\x00dsl\x00"
)

// handleDoubleStarPatterns replaces '**' patterns with placeholder
// tokens.
func handleDoubleStarPatterns(pattern string) string {
	pattern = regexp.MustCompile(`/\*\*/`).ReplaceAllString(pattern, tokenDoubleStarMiddle)
	pattern = regexp.MustCompile(`/\*\*$`).ReplaceAllString(pattern, tokenDoubleStarTrailing)
	pattern = regexp.MustCompile(`^\*\*/`).ReplaceAllString(pattern, tokenDoubleStarLeading)
	return pattern
}

// expandDoubleStarTokens replaces the placeholder tokens with their
// regex equivalents. Must run after wildcardToRegex, which would
// otherwise mangle the '*' inside these fragments.
func expandDoubleStarTokens(pattern string) string {
	pattern = strings.ReplaceAll(pattern, tokenDoubleStarMiddle, `(/|/.+/)`)
	pattern = strings.ReplaceAll(pattern, tokenDoubleStarTrailing, `(/.*)?`)
	pattern = strings.ReplaceAll(pattern, tokenDoubleStarLeading, `(.*/)?`)
	return pattern
}

// wildcardToRegex converts `*` and `?` wildcards to regex equivalents.
func wildcardToRegex(pattern string) string {
	pattern = regexp.MustCompile(`\*`).ReplaceAllString(pattern, `[^/]*`)
	return strings.ReplaceAll(pattern, "?", ".")
}

// anchorPattern anchors the regex pattern to match the full path.
func anchorPattern(pattern string, originalPattern string) string {
	if strings.HasSuffix(originalPattern, "/") {
		pattern += "(|.*)$"
	} else {
		pattern += "(|/.*)$"
	}

	if strings.HasPrefix(originalPattern, "/") {
		return "^" + strings.TrimPrefix(pattern, "/")
	}
	return "^(|.*/)" + pattern
}
