package cmd

import (
	"fmt"
	"time"

	"aggfiles/pkg/aggregate"
	"aggfiles/pkg/cache"
	"aggfiles/pkg/config"
	"aggfiles/pkg/github"
	"aggfiles/pkg/gitstatus"
	"aggfiles/pkg/logging"
	"aggfiles/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootLogger *zap.Logger

var (
	flagRecursive      bool
	flagNoGitIgnore    bool
	flagNoCustomIgnore bool
	flagChunks         int
	flagOutputPattern  string
	flagCreateIndex    bool
	flagMaxLines       int
	flagURL            string
	flagChangedOnly    bool
	flagChangedSince   string
	flagCleanOutput    bool
	flagConfigPath     string
	flagDebug          bool
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "aggfiles [flags] [patterns...]",
	Short: "aggfiles combines filtered source files into balanced text chunks",
	Long: `aggfiles collects the files selected by literal paths, directories, or
glob patterns (with '*' and '{a,b}' alternation), filters them through
.gitignore and custom ignore rules plus binary and line-count checks,
and writes the survivors into one or more size-balanced output files.`,
	Example: `  aggfiles -r --max-lines 1000 '*.go'
  aggfiles -n 5 -o 'part_{}.txt' '*.go'
  aggfiles --index -r 'src/*'
  aggfiles --url 'https://github.com/golang/go/tree/master/src/fmt' -r '*.go'`,
	RunE: runRoot,
}

// Execute wires the logger into the command tree and runs it.
func Execute(logger *zap.Logger) error {
	rootLogger = logger
	return RootCmd.Execute()
}

func init() {
	RootCmd.Flags().BoolVarP(&flagRecursive, "recursive", "r", false, "Search directories recursively")
	RootCmd.Flags().BoolVarP(&flagNoGitIgnore, "no-gitignore", "i", false, "Ignore .gitignore rules (include all files)")
	RootCmd.Flags().BoolVar(&flagNoCustomIgnore, "no-custom-ignore", false, "Ignore the custom ignore file")
	RootCmd.Flags().IntVarP(&flagChunks, "chunks", "n", 0, "Split output into N size-balanced files")
	RootCmd.Flags().StringVarP(&flagOutputPattern, "output", "o", "", "Output file pattern; '{}' is replaced by the chunk index")
	RootCmd.Flags().BoolVar(&flagCreateIndex, "index", false, "Create index files listing read and ignored files")
	RootCmd.Flags().IntVar(&flagMaxLines, "max-lines", 0, "Skip files with more than N lines")
	RootCmd.Flags().StringVar(&flagURL, "url", "", "GitHub repository URL to aggregate instead of the local tree")
	RootCmd.Flags().BoolVar(&flagChangedOnly, "changed-only", false, "Only include files the VCS reports as changed")
	RootCmd.Flags().StringVar(&flagChangedSince, "changed-since", "", "Also include files committed since DATE (YYYY-MM-DD)")
	RootCmd.Flags().BoolVar(&flagCleanOutput, "clean", false, "Remove stale files from the output directory first")
	RootCmd.Flags().StringVar(&flagConfigPath, "config", "", "Path to a config file (default: .aggfiles.yaml)")
	RootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	RootCmd.Version = version.Version
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger := rootLogger
	if flagDebug {
		if err := logging.Setup(true, version.Name, version.Version); err == nil {
			logger = logging.Logger
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	patterns := args
	if len(patterns) == 0 && flagURL == "" {
		// No selection input at all: print usage and do no work.
		return cmd.Help()
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	var cfg *config.Config
	var err error
	if flagConfigPath != "" {
		cfg, err = config.Load(flagConfigPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	root := "."
	if flagURL != "" {
		root, err = fetchRemote(flagURL, logger)
		if err != nil {
			return fmt.Errorf("error processing GitHub URL: %w", err)
		}
	}

	var since *time.Time
	if flagChangedSince != "" {
		parsed, err := time.Parse("2006-01-02", flagChangedSince)
		if err != nil {
			return fmt.Errorf("invalid --changed-since date %q: %w", flagChangedSince, err)
		}
		since = &parsed
	}

	runArgs := &aggregate.Arguments{
		Patterns:       patterns,
		Root:           root,
		Recursive:      flagRecursive,
		NoGitIgnore:    flagNoGitIgnore,
		NoCustomIgnore: flagNoCustomIgnore,
		CustomIgnore:   cfg.CustomIgnore,
		MaxLines:       flagMaxLines,
		Chunks:         flagChunks,
		OutputPattern:  flagOutputPattern,
		CreateIndex:    flagCreateIndex,
		CleanOutput:    flagCleanOutput,
		OutputBaseDir:  cfg.OutputDir,
		ChangedOnly:    flagChangedOnly || since != nil,
		ChangedSince:   since,
	}

	provider := gitstatus.New(root, logger)
	return aggregate.Execute(runArgs, provider, logger)
}

// fetchRemote downloads (or reuses from cache) the repository named by
// rawURL and returns its local path. Any failure is terminal.
func fetchRemote(rawURL string, logger *zap.Logger) (string, error) {
	info, err := github.ParseURL(rawURL)
	if err != nil {
		return "", err
	}

	cacheManager, err := cache.New(logger)
	if err != nil {
		return "", err
	}

	return github.New(cacheManager, logger).Fetch(info)
}
