package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/metrics"
	"github.com/blackwell-systems/repoprune/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled retention passes until interrupted",
	Long: `Run retention passes on the cron schedule from the config file.

The daemon runs an initial pass at startup, then one pass per schedule
tick. The rules file is watched for changes and reloaded live, so edits
take effect on the next pass without a restart. When metrics_address is
configured, a Prometheus endpoint is served at /metrics.

Stop with Ctrl+C (or SIGTERM); the daemon finishes the current root
before exiting.

Examples:
  # schedule: "0 3 * * *" in config runs nightly at 03:00
  repoprune watch`,
	RunE: runWatchCmd,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	client, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("repository unreachable: %w", err)
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		logger.Warn("journal unavailable, passes will not be recorded", zap.Error(err))
		jrnl = nil
	} else {
		defer jrnl.Close()
	}

	var m *metrics.Metrics
	if cfg.MetricsAddress != "" {
		m = metrics.New()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	daemon := watcher.New(cfg, client, jrnl, m, logger)
	if err := daemon.Start(ctx); err != nil {
		return err
	}
	if next := daemon.NextRun(); next != nil {
		fmt.Printf("Watching. Next scheduled pass: %s\n", next.Format("2006-01-02 15:04:05"))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping...")
	cancel()
	daemon.Stop()
	return nil
}
