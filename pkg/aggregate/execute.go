// Package aggregate implements the file-selection and chunk-distribution
// core: pattern-based discovery, layered ignore filtering, binary and
// line-count classification, and size-balanced chunk packing.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aggfiles/pkg/ignore"

	"go.uber.org/zap"
)

// Arguments holds the configuration for one aggregation run.
type Arguments struct {
	Patterns       []string   // Literal paths, directories, or glob patterns.
	Root           string     // Working root for glob walks; "." or a fetched repository.
	Recursive      bool       // Descend past the first directory level.
	NoGitIgnore    bool       // Do not load .gitignore rules.
	NoCustomIgnore bool       // Do not load the custom ignore file.
	CustomIgnore   string     // Explicit custom ignore file path; "" uses the well-known locations.
	MaxLines       int        // Line-count ceiling; 0 disables the check.
	Chunks         int        // Requested chunk count; <= 0 means a single chunk.
	OutputPattern  string     // Output filename pattern with optional '{}' placeholder.
	CreateIndex    bool       // Emit the index artifacts.
	CleanOutput    bool       // Remove stale files from the output directory first.
	OutputBaseDir  string     // Base directory for the timestamped output directory.
	ChangedOnly    bool       // Intersect the candidate set with the VCS change set.
	ChangedSince   *time.Time // Lower bound for the change-set query.
}

// ChangeSetProvider supplies the set of paths the version-control
// system considers changed. The core only consumes it as a filter.
type ChangeSetProvider interface {
	IsRepository() bool
	ChangedFiles(since *time.Time) map[string]struct{}
}

// Execute runs one aggregation: collect, optionally filter by change
// set, distribute into chunks, and write the output artifacts.
func Execute(args *Arguments, changes ChangeSetProvider, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	startTime := time.Now()
	logger.Info("Starting aggregation",
		zap.Strings("patterns", args.Patterns),
		zap.String("root", args.Root))

	root, err := filepath.Abs(args.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve working root: %w", err)
	}

	outputDir := resolveOutputDir(args.OutputBaseDir, root)
	if err := prepareOutputDir(outputDir, args.CleanOutput, logger); err != nil {
		return err
	}

	policy, err := ignore.NewPolicy(ignore.PolicyOptions{
		Root:           root,
		CustomFile:     args.CustomIgnore,
		SkipGitIgnore:  args.NoGitIgnore,
		SkipCustomFile: args.NoCustomIgnore,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to load ignore rules: %w", err)
	}

	classifier := NewClassifier(args.MaxLines, logger)
	collector := NewCollector(root, args.Recursive, policy, classifier, logger)

	col, err := collector.Collect(args.Patterns)
	if err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}

	if args.ChangedOnly {
		col.Accepted = filterChanged(col.Accepted, changes, args.ChangedSince, logger)
	}

	if len(col.Accepted) == 0 {
		fmt.Println("No files found matching the patterns.")
		return nil
	}

	if args.CreateIndex {
		if err := WriteIndex(outputDir, col, args.MaxLines, root, logger); err != nil {
			logger.Error("Failed to create index files", zap.Error(err))
		}
	}

	chunks := Distribute(col.Accepted, args.Chunks, logger)

	fmt.Printf("\nSaving files to: %s\n", outputDir)
	for i, chunk := range chunks {
		outputPath := filepath.Join(outputDir, ChunkFilename(args.OutputPattern, i, len(chunks)))
		written, size, err := WriteChunk(outputPath, chunk.Files, root, logger)
		if err != nil {
			logger.Error("Failed to write chunk",
				zap.String("outputPath", outputPath), zap.Error(err))
			continue
		}
		fmt.Printf("Created %s (%d files, total size: %s)\n",
			outputPath, written, FormatSize(size))
	}

	fmt.Printf("\nProcessing complete. All files saved to: %s\n", outputDir)
	logger.Info("Aggregation completed",
		zap.Int("totalFiles", len(col.Accepted)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", time.Since(startTime)))
	return nil
}

// filterChanged intersects the candidate set with the provider's change
// set. A root that is not a repository yields an empty set with a
// non-fatal notice, never an error.
func filterChanged(accepted []string, changes ChangeSetProvider, since *time.Time, logger *zap.Logger) []string {
	if changes == nil || !changes.IsRepository() {
		logger.Warn("Working root is not a version-controlled repository; change filtering selects no files")
		return nil
	}

	changed := changes.ChangedFiles(since)
	filtered := accepted[:0]
	for _, p := range accepted {
		if _, ok := changed[p]; ok {
			filtered = append(filtered, p)
		}
	}
	logger.Debug("Applied change-set filter",
		zap.Int("before", len(accepted)),
		zap.Int("after", len(filtered)))
	return filtered
}

// resolveOutputDir builds the per-run output directory: the working
// root's base name plus a timestamp, under the configured base.
func resolveOutputDir(base, root string) string {
	dirName := filepath.Base(root)
	if dirName == "." || dirName == string(filepath.Separator) {
		dirName = "aggregate"
	}
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(base, fmt.Sprintf("%s_%s", dirName, stamp))
}

// prepareOutputDir ensures the output directory exists, optionally
// removing stale regular files left from a previous run.
func prepareOutputDir(dir string, clean bool, logger *zap.Logger) error {
	if clean {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, entry := range entries {
				if entry.Type().IsRegular() {
					path := filepath.Join(dir, entry.Name())
					if err := os.Remove(path); err != nil {
						logger.Warn("Could not remove stale output file",
							zap.String("path", path), zap.Error(err))
					}
				}
			}
			logger.Info("Cleaned output directory", zap.String("dir", dir))
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create output directory",
			zap.String("dir", dir), zap.Error(err))
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
