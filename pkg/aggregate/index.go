package aggregate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Index artifact names inside the output directory.
const (
	indexFileName   = "file_index.txt"
	readListName    = "read_files.txt"
	ignoredListName = "ignored_files.txt"
)

// WriteIndex emits the index artifacts: file_index.txt with per-file
// metadata, plus plain listings of every accepted and every rejected
// path. Per-file metadata failures degrade to partial entries rather
// than aborting the index.
func WriteIndex(outputDir string, col *Collection, maxLines int, displayRoot string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := writeIndexFile(outputDir, col.Accepted, maxLines, displayRoot); err != nil {
		return err
	}
	if err := writeReadList(outputDir, col.Accepted, displayRoot); err != nil {
		return err
	}
	if err := writeIgnoredList(outputDir, col.Rejected, displayRoot); err != nil {
		return err
	}

	logger.Info("Created index files",
		zap.String("outputDir", outputDir),
		zap.Int("accepted", len(col.Accepted)),
		zap.Int("rejected", len(col.Rejected)))
	return nil
}

func writeIndexFile(outputDir string, files []string, maxLines int, displayRoot string) error {
	indexPath := filepath.Join(outputDir, indexFileName)
	f, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "File Index")
	fmt.Fprintln(w, "==========")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Working Directory: %s\n", displayRoot)
	if maxLines > 0 {
		fmt.Fprintf(w, "Maximum Lines Per File: %d\n", maxLines)
	}
	fmt.Fprintln(w)

	for _, file := range files {
		display := displayPath(file, displayRoot)
		if dir := filepath.Dir(display); dir != "." {
			fmt.Fprintf(w, "Directory: %s\n", dir)
			fmt.Fprintf(w, "File: %s\n", filepath.Base(display))
		} else {
			fmt.Fprintf(w, "File: %s\n", display)
		}

		if info, err := os.Stat(file); err == nil {
			fmt.Fprintf(w, "Size: %s\n", FormatSize(info.Size()))
			if lineCount, err := CountLines(file); err == nil {
				fmt.Fprintf(w, "Lines: %d\n", lineCount)
			}
			fmt.Fprintf(w, "Last Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, "---")
	}

	return w.Flush()
}

func writeReadList(outputDir string, files []string, displayRoot string) error {
	f, err := os.Create(filepath.Join(outputDir, readListName))
	if err != nil {
		return fmt.Errorf("failed to create read-files list: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, file := range files {
		fmt.Fprintln(w, displayPath(file, displayRoot))
	}
	return w.Flush()
}

func writeIgnoredList(outputDir string, rejected map[string]Reason, displayRoot string) error {
	f, err := os.Create(filepath.Join(outputDir, ignoredListName))
	if err != nil {
		return fmt.Errorf("failed to create ignored-files list: %w", err)
	}
	defer f.Close()

	paths := make([]string, 0, len(rejected))
	for p := range rejected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	w := bufio.NewWriter(f)
	for _, p := range paths {
		fmt.Fprintf(w, "%s: %s\n", displayPath(p, displayRoot), rejected[p])
	}
	return w.Flush()
}
