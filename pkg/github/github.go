// Package github downloads repository snapshots via the GitHub tarball
// API. Any failure here is terminal for the run: the caller aborts
// before the aggregation core executes.
package github

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aggfiles/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userAgent = "aggfiles"

// RepoInfo identifies one repository snapshot to fetch.
type RepoInfo struct {
	Owner  string
	Repo   string
	Branch string
	Path   string // Optional subdirectory inside the repository.
}

// Handler downloads and caches repository snapshots.
type Handler struct {
	client *http.Client
	cache  *cache.Manager
	logger *zap.Logger
}

// New returns a Handler using the given cache manager.
func New(cacheManager *cache.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		client: &http.Client{Timeout: 5 * time.Minute},
		cache:  cacheManager,
		logger: logger,
	}
}

// ParseURL extracts owner, repository, branch, and optional subpath
// from a GitHub URL. URLs without a /tree/ segment default to the main
// branch.
func ParseURL(rawURL string) (*RepoInfo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("invalid GitHub URL: %s", rawURL)
	}

	info := &RepoInfo{
		Owner:  segments[0],
		Repo:   segments[1],
		Branch: "main",
	}

	if len(segments) > 3 && segments[2] == "tree" {
		info.Branch = segments[3]
		if len(segments) > 4 {
			info.Path = strings.Join(segments[4:], "/")
		}
	}

	return info, nil
}

// Fetch returns the local path of the repository snapshot, downloading
// it unless it is already cached.
func (h *Handler) Fetch(info *RepoInfo) (string, error) {
	target := h.cache.RepoPath(info.Owner, info.Repo, info.Branch, info.Path)
	if h.cache.Exists(info.Owner, info.Repo, info.Branch, info.Path) {
		h.logger.Info("Using cached repository", zap.String("path", target))
		return target, nil
	}

	if err := h.download(info, target); err != nil {
		return "", err
	}
	return target, nil
}

// download fetches the branch tarball and unpacks it into target.
func (h *Handler) download(info *RepoInfo, target string) error {
	tarballURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/tarball/%s",
		info.Owner, info.Repo, info.Branch)
	h.logger.Info("Downloading repository",
		zap.String("url", tarballURL),
		zap.String("target", target))

	req, err := http.NewRequest(http.MethodGet, tarballURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download repository: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("repository download failed: %s", resp.Status)
	}

	// Extract into a unique temp directory first so a partial
	// extraction never poisons the cache location.
	tempDir := target + ".tmp-" + uuid.NewString()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractTarball(resp.Body, tempDir); err != nil {
		return fmt.Errorf("malformed archive: %w", err)
	}

	// The tarball wraps everything in a single {owner}-{repo}-{sha}
	// directory.
	entries, err := os.ReadDir(tempDir)
	if err != nil || len(entries) == 0 {
		return fmt.Errorf("no files extracted from archive")
	}
	extracted := filepath.Join(tempDir, entries[0].Name())

	source := extracted
	if info.Path != "" {
		source = filepath.Join(extracted, filepath.FromSlash(info.Path))
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("path %q not found in repository", info.Path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.Rename(source, target); err != nil {
		return fmt.Errorf("failed to move extracted files: %w", err)
	}

	return nil
}

// extractTarball unpacks a gzipped tar stream into dir, refusing
// entries that would escape it.
func extractTarball(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dir, filepath.FromSlash(header.Name))
		rel, err := filepath.Rel(dir, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("archive entry escapes extraction directory: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and other special entries are skipped.
		}
	}
}
