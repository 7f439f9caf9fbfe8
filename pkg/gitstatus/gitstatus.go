// Package gitstatus queries git for the set of changed files in a
// working tree. It shells out to the git binary; a missing binary or a
// non-repository root simply reports an empty change set.
package gitstatus

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Handler answers change-set queries for one working directory.
type Handler struct {
	workingDir string
	logger     *zap.Logger
}

// New returns a Handler rooted at workingDir.
func New(workingDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{workingDir: workingDir, logger: logger}
}

// IsRepository reports whether the working directory is inside a git
// work tree.
func (h *Handler) IsRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = h.workingDir
	return cmd.Run() == nil
}

// ChangedFiles returns the absolute paths of files git considers
// modified, added, or otherwise dirty. When since is set, files touched
// by commits after that date are included as well. Paths that no longer
// exist on disk are dropped.
func (h *Handler) ChangedFiles(since *time.Time) map[string]struct{} {
	changed := make(map[string]struct{})

	h.addStatusFiles(changed)
	if since != nil {
		h.addLogFiles(changed, *since)
	}

	return changed
}

// addStatusFiles collects paths from `git status --porcelain`.
func (h *Handler) addStatusFiles(changed map[string]struct{}) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = h.workingDir
	out, err := cmd.Output()
	if err != nil {
		h.logger.Debug("git status failed", zap.Error(err))
		return
	}

	for _, line := range strings.Split(string(out), "\n") {
		// Porcelain lines are "XY <path>"; skip the two status
		// characters and the separating space.
		if len(line) <= 3 {
			continue
		}
		h.addIfExists(changed, line[3:])
	}
}

// addLogFiles collects paths named by commits since the given date.
func (h *Handler) addLogFiles(changed map[string]struct{}, since time.Time) {
	cmd := exec.Command("git", "log", "--name-only", "--pretty=format:",
		"--since="+since.Format("2006-01-02"))
	cmd.Dir = h.workingDir
	out, err := cmd.Output()
	if err != nil {
		h.logger.Debug("git log failed", zap.Error(err))
		return
	}

	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		h.addIfExists(changed, line)
	}
}

// addIfExists resolves rel against the working directory and records it
// when the file still exists.
func (h *Handler) addIfExists(changed map[string]struct{}, rel string) {
	path := filepath.Join(h.workingDir, strings.TrimSpace(rel))
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	if _, err := os.Stat(abs); err == nil {
		changed[abs] = struct{}{}
	}
}
