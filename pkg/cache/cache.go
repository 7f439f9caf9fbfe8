// Package cache manages the on-disk cache of downloaded repositories.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Manager resolves cache locations for fetched repositories.
type Manager struct {
	baseDir string
}

// New returns a Manager rooted in the user cache directory, creating
// the base directory if needed.
func New(logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userCache, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user cache directory: %w", err)
	}

	baseDir := filepath.Join(userCache, "aggfiles")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		logger.Warn("Failed to create cache directory",
			zap.String("dir", baseDir), zap.Error(err))
	}

	return &Manager{baseDir: baseDir}, nil
}

// RepoPath returns the cache location for one repository reference.
func (m *Manager) RepoPath(owner, repo, branch, subPath string) string {
	dir := filepath.Join(m.baseDir, owner, repo, branch)
	if subPath != "" {
		return filepath.Join(dir, subPath)
	}
	return dir
}

// Exists reports whether the repository reference is already cached.
func (m *Manager) Exists(owner, repo, branch, subPath string) bool {
	_, err := os.Stat(m.RepoPath(owner, repo, branch, subPath))
	return err == nil
}
