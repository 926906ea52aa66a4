// Package watcher runs scheduled retention passes. A cron schedule triggers
// passes, and an fsnotify watch on the rules file picks up edits without a
// restart.
package watcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/config"
	"github.com/blackwell-systems/repoprune/internal/engine"
	"github.com/blackwell-systems/repoprune/internal/journal"
	"github.com/blackwell-systems/repoprune/internal/metrics"
	"github.com/blackwell-systems/repoprune/internal/store"
)

// reloadDebounce coalesces the burst of fsnotify events most editors emit
// for a single save.
const reloadDebounce = 500 * time.Millisecond

// Daemon owns the scheduled pass loop.
type Daemon struct {
	cfg     *config.Config
	client  store.Client
	journal *journal.Journal
	metrics *metrics.Metrics
	logger  *zap.Logger

	cron    *cron.Cron
	fsw     *fsnotify.Watcher
	httpSrv *http.Server
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	rules   []engine.Rule
	running bool
	passing bool
}

// New creates a Daemon. journal and metrics may be nil to disable recording.
func New(cfg *config.Config, client store.Client, jrnl *journal.Journal, m *metrics.Metrics, logger *zap.Logger) *Daemon {
	return &Daemon{
		cfg:     cfg,
		client:  client,
		journal: jrnl,
		metrics: m,
		logger:  logger,
		cron:    cron.New(),
		stopCh:  make(chan struct{}),
	}
}

// Start validates the schedule, loads the rules, and begins the loop.
// A pass runs immediately on startup, then on every schedule tick.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.Schedule == "" {
		return fmt.Errorf("watch mode requires a schedule in the config file")
	}
	if _, err := cron.ParseStandard(d.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", d.cfg.Schedule, err)
	}

	rules, rejected, err := config.ParseRules(d.cfg.Rules)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		d.logger.Warn("rejected rule", zap.Int("line", r.Line), zap.String("reason", r.Reason))
	}
	d.rules = rules

	if err := d.watchRulesFile(); err != nil {
		return err
	}
	if d.cfg.MetricsAddress != "" {
		d.serveMetrics()
	}

	if _, err := d.cron.AddFunc(d.cfg.Schedule, func() { d.runPass(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule passes: %w", err)
	}
	d.cron.Start()
	d.running = true

	d.logger.Info("daemon started",
		zap.String("schedule", d.cfg.Schedule),
		zap.Int("rules", len(rules)),
		zap.Bool("dry_run", d.cfg.DryRun))

	// Initial pass so a fresh daemon is useful before the first tick.
	go d.runPass(ctx)

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for an in-flight pass to finish. The
// job's cancellation boundary is between roots, so this can block for as
// long as one root takes.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	<-d.cron.Stop().Done()
	if d.fsw != nil {
		d.fsw.Close()
	}
	if d.httpSrv != nil {
		d.httpSrv.Close()
	}
	d.wg.Wait()
	d.logger.Info("daemon stopped")
}

// IsRunning reports whether the daemon loop is active.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// NextRun returns the next scheduled pass time, or nil before Start.
func (d *Daemon) NextRun() *time.Time {
	entries := d.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// runPass executes one pass over the current rule set. Overlapping ticks
// are dropped rather than queued.
func (d *Daemon) runPass(ctx context.Context) {
	d.mu.Lock()
	if d.passing {
		d.mu.Unlock()
		d.logger.Warn("previous pass still running, skipping tick")
		return
	}
	d.passing = true
	rules := append([]engine.Rule(nil), d.rules...)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.passing = false
		d.mu.Unlock()
	}()

	var deleter engine.Deleter = &engine.LiveDeleter{Client: d.client}
	if d.cfg.DryRun {
		deleter = engine.NoopDeleter{}
	}
	runner := engine.NewRunner(d.client, deleter, d.logger)

	d.logger.Info("scheduled pass starting", zap.Int("rules", len(rules)))
	results, err := runner.Run(ctx, rules)
	if err != nil {
		d.logger.Warn("pass interrupted", zap.Error(err))
	}

	for _, res := range results {
		if d.journal != nil {
			if _, err := d.journal.RecordPass(res); err != nil {
				d.logger.Warn("failed to record pass", zap.String("root", res.Root), zap.Error(err))
			}
		}
		if d.metrics != nil {
			d.metrics.ObservePass(res)
		}
	}
	if d.metrics != nil {
		for i := len(results); i < len(rules); i++ {
			d.metrics.ObserveSkippedRoot()
		}
	}
	d.logger.Info("scheduled pass complete", zap.Int("roots", len(results)))
}

// watchRulesFile reloads the rule set when the rules file changes.
func (d *Daemon) watchRulesFile() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rules watcher: %w", err)
	}
	if err := fsw.Add(d.cfg.Rules); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch rules file %q: %w", d.cfg.Rules, err)
	}
	d.fsw = fsw

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var debounce *time.Timer
		reload := make(chan struct{}, 1)
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case <-reload:
				d.reloadRules()
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				d.logger.Warn("rules watcher error", zap.Error(err))
			case <-d.stopCh:
				return
			}
		}
	}()
	return nil
}

func (d *Daemon) reloadRules() {
	rules, rejected, err := config.ParseRules(d.cfg.Rules)
	if err != nil {
		d.logger.Warn("rules reload failed, keeping previous rules", zap.Error(err))
		return
	}
	for _, r := range rejected {
		d.logger.Warn("rejected rule", zap.Int("line", r.Line), zap.String("reason", r.Reason))
	}

	d.mu.Lock()
	d.rules = rules
	d.mu.Unlock()
	d.logger.Info("rules reloaded", zap.Int("rules", len(rules)), zap.Int("rejected", len(rejected)))
}

func (d *Daemon) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	d.httpSrv = &http.Server{Addr: d.cfg.MetricsAddress, Handler: mux}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logger.Info("metrics endpoint listening", zap.String("address", d.cfg.MetricsAddress))
		if err := d.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Warn("metrics endpoint failed", zap.Error(err))
		}
	}()
}
