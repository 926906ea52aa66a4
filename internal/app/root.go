package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blackwell-systems/repoprune/internal/config"
	"github.com/blackwell-systems/repoprune/internal/journal"
	"github.com/blackwell-systems/repoprune/internal/store"
)

var (
	configPath string
	verbose    bool

	// RootCmd is the root command for repoprune
	RootCmd = &cobra.Command{
		Use:   "repoprune",
		Short: "Retention pruning for remote artifact repositories",
		Long: `repoprune deletes expired artifacts from a remote artifact repository
according to per-path retention rules, while always preserving the newest
N expired entries under each rule.

Each rule names a repository path, a retention window in days, and a
protect count. Entries newer than the window are never touched; of the
expired entries, the newest N are protected and the rest are deleted.
A folder's age is the age of its most recently modified descendant file.

Rules live in a plain text file, one rule per line:
  libs-release-local/com/acme/app 30 2
  builds/nightly 14 5

Examples:
  # Preview what a pass would delete
  repoprune run --dry-run

  # Run a live pass
  repoprune run

  # Check the rules file and repository connectivity
  repoprune validate

  # Inspect past passes
  repoprune history

  # Run on a schedule
  repoprune watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.repoprune/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getConfigPath returns the config file path, using the flag value or default.
func getConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// loadConfig reads the job configuration. A missing config file is a fatal
// job-level error.
func loadConfig() (*config.Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newLogger builds the console logger every command uses.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// openStore builds the HTTP store client from config.
func openStore(cfg *config.Config) (store.Client, error) {
	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}
	return store.NewHTTP(cfg.Store.Endpoint, token, cfg.Store.Timeout), nil
}

// openJournal opens the pass journal named by config.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal at %s: %w", cfg.Journal, err)
	}
	return j, nil
}
