package aggregate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubChanges is a canned ChangeSetProvider for tests.
type stubChanges struct {
	isRepo  bool
	changed map[string]struct{}
}

func (s *stubChanges) IsRepository() bool { return s.isRepo }
func (s *stubChanges) ChangedFiles(since *time.Time) map[string]struct{} {
	return s.changed
}

func TestExecuteEndToEnd(t *testing.T) {
	root := t.TempDir()
	outBase := t.TempDir()

	// a.txt: 500 lines; b.txt: 50 lines; c.bin: contains a null byte.
	writeTestFile(t, root, "a.txt", strings.Repeat("aaa\n", 500))
	writeTestFile(t, root, "b.txt", strings.Repeat("bbbbbbbbb\n", 50))
	writeTestFile(t, root, "c.bin", "data\x00data")

	args := &Arguments{
		Patterns:      []string{"*.{txt,bin}"},
		Root:          root,
		Recursive:     true,
		MaxLines:      100,
		Chunks:        2,
		CreateIndex:   true,
		OutputBaseDir: outBase,
	}

	if err := Execute(args, &stubChanges{}, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	runDirs, err := os.ReadDir(outBase)
	if err != nil || len(runDirs) != 1 {
		t.Fatalf("expected one run directory under %s, got %v (%v)", outBase, runDirs, err)
	}
	outDir := filepath.Join(outBase, runDirs[0].Name())

	// Only b.txt survives: a.txt exceeds the line ceiling, c.bin is
	// binary. Two requested chunks collapse to one non-empty chunk,
	// so the single-chunk filename is used.
	combined, err := os.ReadFile(filepath.Join(outDir, "output.txt"))
	if err != nil {
		t.Fatalf("reading output.txt: %v", err)
	}
	if !strings.Contains(string(combined), "# File: b.txt") {
		t.Error("output.txt must contain the b.txt header")
	}
	if strings.Contains(string(combined), "a.txt") || strings.Contains(string(combined), "c.bin") {
		t.Error("rejected files leaked into the combined output")
	}
	if !strings.Contains(string(combined), "=====================") {
		t.Error("output.txt must contain the separator line")
	}

	// Index artifacts record the accepted/rejected split.
	readList, err := os.ReadFile(filepath.Join(outDir, "read_files.txt"))
	if err != nil {
		t.Fatalf("reading read_files.txt: %v", err)
	}
	if strings.TrimSpace(string(readList)) != "b.txt" {
		t.Errorf("read_files.txt = %q, want only b.txt", readList)
	}

	ignoredList, err := os.ReadFile(filepath.Join(outDir, "ignored_files.txt"))
	if err != nil {
		t.Fatalf("reading ignored_files.txt: %v", err)
	}
	if !strings.Contains(string(ignoredList), "a.txt: line limit exceeded") {
		t.Errorf("ignored_files.txt missing a.txt line-limit entry: %q", ignoredList)
	}
	if !strings.Contains(string(ignoredList), "c.bin: binary") {
		t.Errorf("ignored_files.txt missing c.bin binary entry: %q", ignoredList)
	}

	index, err := os.ReadFile(filepath.Join(outDir, "file_index.txt"))
	if err != nil {
		t.Fatalf("reading file_index.txt: %v", err)
	}
	if !strings.Contains(string(index), "Maximum Lines Per File: 100") {
		t.Error("file_index.txt must record the configured line ceiling")
	}
	if !strings.Contains(string(index), "Lines: 50") {
		t.Error("file_index.txt must record b.txt's line count")
	}
}

func TestExecuteEmptyResultIsNotAnError(t *testing.T) {
	root := t.TempDir()
	outBase := t.TempDir()

	args := &Arguments{
		Patterns:      []string{"*.nomatch"},
		Root:          root,
		Recursive:     true,
		OutputBaseDir: outBase,
	}
	if err := Execute(args, &stubChanges{}, nil); err != nil {
		t.Fatalf("Execute with zero candidates must not fail: %v", err)
	}

	// No chunk files are written for an empty candidate set.
	runDirs, err := os.ReadDir(outBase)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range runDirs {
		entries, err := os.ReadDir(filepath.Join(outBase, d.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("unexpected output artifacts for empty result: %v", entries)
		}
	}
}

func TestExecuteChangedOnlyOutsideRepository(t *testing.T) {
	root := t.TempDir()
	outBase := t.TempDir()
	writeTestFile(t, root, "a.txt", "hello\n")

	args := &Arguments{
		Patterns:      []string{"*.txt"},
		Root:          root,
		Recursive:     true,
		ChangedOnly:   true,
		OutputBaseDir: outBase,
	}

	// Not a repository: filtering yields an empty set, surfaced as a
	// notice rather than an error.
	if err := Execute(args, &stubChanges{isRepo: false}, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestExecuteChangedOnlyIntersects(t *testing.T) {
	root := t.TempDir()
	outBase := t.TempDir()
	aPath := writeTestFile(t, root, "a.txt", "hello\n")
	writeTestFile(t, root, "b.txt", "world\n")

	args := &Arguments{
		Patterns:      []string{"*.txt"},
		Root:          root,
		Recursive:     true,
		ChangedOnly:   true,
		OutputBaseDir: outBase,
	}
	changes := &stubChanges{
		isRepo:  true,
		changed: map[string]struct{}{aPath: {}},
	}

	if err := Execute(args, changes, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	runDirs, err := os.ReadDir(outBase)
	if err != nil || len(runDirs) != 1 {
		t.Fatalf("expected one run directory, got %v (%v)", runDirs, err)
	}
	combined, err := os.ReadFile(filepath.Join(outBase, runDirs[0].Name(), "output.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(combined), "# File: a.txt") {
		t.Error("changed file a.txt missing from output")
	}
	if strings.Contains(string(combined), "b.txt") {
		t.Error("unchanged file b.txt must be filtered out")
	}
}

func writeTestFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
