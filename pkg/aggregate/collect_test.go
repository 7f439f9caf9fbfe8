package aggregate

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"aggfiles/pkg/ignore"
)

// newTestTree builds a small source tree and returns its root.
func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go":          "package main\n",
		"util.go":          "package main\nfunc helper() {}\n",
		"readme.md":        "# readme\n",
		"src/lib.go":       "package src\n",
		"src/lib_test.go":  "package src\n",
		"vendor/dep.go":    "package dep\n",
		".git/config":      "[core]\n",
		".git/HEAD":        "ref: refs/heads/main\n",
		"assets/logo.bin":  "PNG\x00DATA",
		"docs/guide.md":    "# guide\n",
		"docs/deep/api.md": "# api\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestCollector(t *testing.T, root string, recursive bool, maxLines int) *Collector {
	t.Helper()
	policy, err := ignore.NewPolicy(ignore.PolicyOptions{Root: root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewCollector(root, recursive, policy, NewClassifier(maxLines, nil), nil)
}

func TestCollectGlobRecursive(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, true, 0)

	col, err := c.Collect([]string{"*.go"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "src/lib.go"),
		filepath.Join(root, "src/lib_test.go"),
		filepath.Join(root, "util.go"),
		filepath.Join(root, "vendor/dep.go"),
	}
	if !equalStrings(col.Accepted, want) {
		t.Errorf("Accepted = %v, want %v", col.Accepted, want)
	}
}

func TestCollectNonRecursiveStaysAtTopLevel(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, false, 0)

	col, err := c.Collect([]string{"*.go"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "util.go"),
	}
	if !equalStrings(col.Accepted, want) {
		t.Errorf("Accepted = %v, want %v", col.Accepted, want)
	}
}

func TestCollectNeverEntersGitMetadata(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, true, 0)

	// '*' matches everything, including what the .git dir would offer.
	col, err := c.Collect([]string{"*"})
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range col.Accepted {
		if ignore.InGitMetadata(p[len(root):]) {
			t.Errorf("accepted path inside .git: %s", p)
		}
	}
	for p := range col.Rejected {
		if ignore.InGitMetadata(p[len(root):]) {
			t.Errorf("rejected provenance contains .git path: %s", p)
		}
	}
}

func TestCollectPartitionIsDisjointAndComplete(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, true, 0)

	col, err := c.Collect([]string{"*"})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, p := range col.Accepted {
		seen[p] = true
	}
	for p := range col.Rejected {
		if seen[p] {
			t.Errorf("path in both accepted and rejected sets: %s", p)
		}
		seen[p] = true
	}

	// Every regular file reachable outside .git must be accounted for.
	wantCount := 9 // all fixture files except the two under .git
	if len(seen) != wantCount {
		t.Errorf("accepted+rejected covers %d files, want %d: %v", len(seen), wantCount, seen)
	}

	// The binary asset lands in the provenance with the binary reason.
	binPath := filepath.Join(root, "assets/logo.bin")
	if col.Rejected[binPath] != ReasonBinary {
		t.Errorf("logo.bin reason = %v, want binary", col.Rejected[binPath])
	}
}

func TestCollectSortedAndDeduplicated(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, true, 0)

	// Overlapping patterns produce each file at most once.
	col, err := c.Collect([]string{"*.go", "*.go", "main.go"})
	if err != nil {
		t.Fatal(err)
	}

	if !sort.StringsAreSorted(col.Accepted) {
		t.Errorf("Accepted is not sorted: %v", col.Accepted)
	}
	for i := 1; i < len(col.Accepted); i++ {
		if col.Accepted[i] == col.Accepted[i-1] {
			t.Errorf("duplicate path in Accepted: %s", col.Accepted[i])
		}
	}
}

func TestCollectLiteralPathBypassesFilters(t *testing.T) {
	root := newTestTree(t)
	binPath := filepath.Join(root, "assets/logo.bin")
	c := newTestCollector(t, root, true, 0)

	// The glob pass rejects the binary; the later literal path accepts
	// it, and acceptance wins over the earlier rejection.
	col, err := c.Collect([]string{"*", binPath})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, p := range col.Accepted {
		if p == binPath {
			found = true
		}
	}
	if !found {
		t.Error("explicit literal path must be accepted even when a filter rejected it")
	}
	if _, stillRejected := col.Rejected[binPath]; stillRejected {
		t.Error("accepted path must be removed from the rejected provenance")
	}
}

func TestCollectDirectoryPattern(t *testing.T) {
	root := newTestTree(t)
	c := newTestCollector(t, root, true, 0)

	col, err := c.Collect([]string{filepath.Join(root, "docs")})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(root, "docs/deep/api.md"),
		filepath.Join(root, "docs/guide.md"),
	}
	if !equalStrings(col.Accepted, want) {
		t.Errorf("Accepted = %v, want %v", col.Accepted, want)
	}
}

func TestCollectHonorsIgnorePolicy(t *testing.T) {
	root := newTestTree(t)
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newTestCollector(t, root, true, 0)

	col, err := c.Collect([]string{"*.go"})
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range col.Accepted {
		if filepath.Base(filepath.Dir(p)) == "vendor" {
			t.Errorf("ignored vendor file was accepted: %s", p)
		}
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != filepath.FromSlash(want[i]) {
			return false
		}
	}
	return true
}
