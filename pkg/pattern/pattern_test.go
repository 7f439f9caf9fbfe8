package pattern

import "testing"

func TestMatcherGlobs(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.{rs,toml}", "lib.rs", true},
		{"*.{rs,toml}", "Cargo.toml", true},
		{"*.{rs,toml}", "readme.md", false},
		{"src/*", "src/main.rs", true},
		{"src/*", "src/cli.rs", true},
		{"src/*", "docs/readme.md", false},
		{"*.go", "pkg/deep/nested/file.go", true},
		{"*.go", "file.go.bak", false},
		{"main.go", "cmd/main.go", true},
		{"main.go", "cmd/mainXgo", false}, // dot is literal
		{"*. {go, md}", "a.md", true},     // whitespace is stripped
		{"*", "anything/at/all", true},
	}

	for _, tt := range tests {
		m := Compile(tt.pattern, nil)
		if got := m.Matches(tt.path); got != tt.want {
			t.Errorf("Compile(%q).Matches(%q) = %v, want %v",
				tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestMatcherSuffixAnchoring(t *testing.T) {
	m := Compile("cli.rs", nil)
	if !m.Matches("/tmp/project/src/cli.rs") {
		t.Error("pattern should match the tail of an absolute path")
	}
	if m.Matches("/tmp/project/src/cli.rs.orig") {
		t.Error("pattern must be anchored at end of string")
	}
}

func TestBadPatternMatchesNothing(t *testing.T) {
	m := Compile("a{b", nil) // unbalanced group does not compile
	for _, p := range []string{"a{b", "ab", "anything"} {
		if m.Matches(p) {
			t.Errorf("uncompilable pattern matched %q, want match-nothing fallback", p)
		}
	}
}

func TestZeroValueMatchesNothing(t *testing.T) {
	var m Matcher
	if m.Matches("x") {
		t.Error("zero-value Matcher must match nothing")
	}
}
