package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Well-known rule file locations, relative to the working root.
const (
	GitIgnoreFile     = ".gitignore"
	CustomIgnoreFile  = "to_ignore"
	CustomIgnoreExtra = ".aggfiles-ignore"
)

// gitMetadataDir is excluded from every traversal regardless of rule
// configuration.
const gitMetadataDir = ".git"

// PolicyOptions controls which rule sources a Policy loads.
type PolicyOptions struct {
	Root           string // Working root containing the rule files.
	CustomFile     string // Explicit custom ignore file path; overrides the well-known locations.
	SkipGitIgnore  bool   // Do not load the VCS ignore file.
	SkipCustomFile bool   // Do not load the custom ignore file.
}

// Policy layers the custom ignore rules over the VCS ignore rules.
// Custom rules are evaluated first and short-circuit on a match; the
// VCS metadata directory is ignored unconditionally.
type Policy struct {
	custom *RuleSet
	vcs    *RuleSet
	logger *zap.Logger
}

// NewPolicy loads the rule sources named by opts. Missing rule files
// are not errors: each absent source is simply permissive.
func NewPolicy(opts PolicyOptions, logger *zap.Logger) (*Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Policy{
		custom: NewRuleSet(logger),
		vcs:    NewRuleSet(logger),
		logger: logger,
	}

	if !opts.SkipCustomFile {
		path := opts.CustomFile
		if path == "" {
			path = filepath.Join(opts.Root, CustomIgnoreFile)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				path = filepath.Join(opts.Root, CustomIgnoreExtra)
			}
		}
		rs, err := LoadFile(path, logger)
		if err != nil {
			return nil, err
		}
		p.custom = rs
		logger.Debug("Loaded custom ignore rules",
			zap.String("file", path),
			zap.Int("ruleCount", len(rs.Rules)))
	}

	if !opts.SkipGitIgnore {
		rs, err := LoadFile(filepath.Join(opts.Root, GitIgnoreFile), logger)
		if err != nil {
			return nil, err
		}
		p.vcs = rs
		logger.Debug("Loaded VCS ignore rules", zap.Int("ruleCount", len(rs.Rules)))
	}

	return p, nil
}

// IsIgnored reports whether path is excluded by the policy. Custom
// rules take precedence over VCS rules; the .git directory check runs
// before either source and cannot be disabled.
func (p *Policy) IsIgnored(path string, isDir bool) bool {
	if InGitMetadata(path) {
		return true
	}
	if p.custom.Matches(path, isDir) {
		return true
	}
	return p.vcs.Matches(path, isDir)
}

// InGitMetadata reports whether any component of path is the VCS
// metadata directory.
func InGitMetadata(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == gitMetadataDir {
			return true
		}
	}
	return false
}
