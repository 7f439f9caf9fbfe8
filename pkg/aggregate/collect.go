package aggregate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aggfiles/pkg/ignore"
	"aggfiles/pkg/pattern"

	"go.uber.org/zap"
)

// Collection is the outcome of one collection pass: the sorted,
// deduplicated candidate set plus the rejected provenance. A path never
// appears in both.
type Collection struct {
	Accepted []string          // Absolute paths, lexicographically sorted, no duplicates.
	Rejected map[string]Reason // Absolute path to rejection reason.
}

// Collector walks the caller-supplied patterns and produces a
// Collection. Each run is a pure function of the configuration and the
// filesystem snapshot; a Collector holds no state across runs.
type Collector struct {
	Root       string // Working root for glob-pattern walks.
	Recursive  bool   // Descend past the first directory level.
	Policy     *ignore.Policy
	Classifier *Classifier
	logger     *zap.Logger
}

// NewCollector returns a Collector over root.
func NewCollector(root string, recursive bool, policy *ignore.Policy, classifier *Classifier, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Root:       root,
		Recursive:  recursive,
		Policy:     policy,
		Classifier: classifier,
		logger:     logger,
	}
}

// Collect processes the patterns in order. A pattern naming an existing
// directory is walked; one naming an existing regular file is accepted
// directly, bypassing the ignore policy and the classifier; anything
// else is treated as a glob over the working root.
func (c *Collector) Collect(patterns []string) (*Collection, error) {
	col := &Collection{Rejected: make(map[string]Reason)}

	for _, pat := range patterns {
		absPat, err := filepath.Abs(pat)
		if err != nil {
			c.logger.Warn("Failed to resolve pattern path",
				zap.String("pattern", pat), zap.Error(err))
			continue
		}

		info, err := os.Stat(absPat)
		switch {
		case err == nil && info.IsDir():
			c.collectFromDirectory(absPat, col)
		case err == nil && info.Mode().IsRegular():
			// An explicit literal path is always honored.
			col.Accepted = append(col.Accepted, absPat)
		default:
			c.collectFromGlob(pat, col)
		}
	}

	sort.Strings(col.Accepted)
	col.Accepted = dedupSorted(col.Accepted)

	// Acceptance wins: a path admitted by any pattern must not linger
	// in the rejected provenance from an earlier pattern's traversal.
	for _, p := range col.Accepted {
		delete(col.Rejected, p)
	}

	c.logger.Debug("Completed file collection",
		zap.Int("accepted", len(col.Accepted)),
		zap.Int("rejected", len(col.Rejected)))
	return col, nil
}

// collectFromDirectory walks dir and admits every regular file that
// passes the ignore policy and the classifier.
func (c *Collector) collectFromDirectory(dir string, col *Collection) {
	c.walk(dir, func(path string) {
		c.examine(path, col)
	})
}

// collectFromGlob walks the working root and admits files whose paths
// match the compiled pattern.
func (c *Collector) collectFromGlob(pat string, col *Collection) {
	matcher := pattern.Compile(pat, c.logger)
	root, err := filepath.Abs(c.Root)
	if err != nil {
		c.logger.Warn("Failed to resolve working root", zap.Error(err))
		return
	}

	c.walk(root, func(path string) {
		if matcher.Matches(path) {
			c.examine(path, col)
		}
	})
}

// examine applies the ignore policy and the classifier to one regular
// file and records the outcome in col.
func (c *Collector) examine(path string, col *Collection) {
	rel := c.relToRoot(path)
	if c.Policy != nil && c.Policy.IsIgnored(rel, false) {
		col.Rejected[path] = ReasonIgnored
		return
	}
	if ok, reason := c.Classifier.Admit(path); !ok {
		col.Rejected[path] = reason
		return
	}
	col.Accepted = append(col.Accepted, path)
}

// walk visits every regular file under root, honoring the recursion
// setting and pruning ignored directories. The VCS metadata directory
// is never entered, independent of all other configuration.
func (c *Collector) walk(root string, visit func(path string)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("Error accessing path during traversal",
				zap.String("path", path), zap.Error(err))
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if c.Policy != nil && c.Policy.IsIgnored(c.relToRoot(path), true) {
				c.logger.Debug("Skipping ignored directory",
					zap.String("directory", path))
				return filepath.SkipDir
			}
			if !c.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			visit(path)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("Directory walk aborted", zap.String("root", root), zap.Error(err))
	}
}

// relToRoot rewrites path relative to the working root for rule
// matching; ignore rules are written against root-relative paths.
func (c *Collector) relToRoot(path string) string {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// dedupSorted removes adjacent duplicates from a sorted slice.
func dedupSorted(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
