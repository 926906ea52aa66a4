// Package metrics exposes Prometheus counters for the repoprune daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackwell-systems/repoprune/internal/engine"
)

// Metrics contains Prometheus metrics for retention passes.
type Metrics struct {
	passesTotal    *prometheus.CounterVec
	entriesDeleted *prometheus.CounterVec
	deleteFailures *prometheus.CounterVec
	unclassifiable *prometheus.CounterVec
	rootsSkipped   prometheus.Counter
	passDuration   prometheus.Histogram
}

// New creates a Metrics instance with collectors registered on the default
// registry.
func New() *Metrics {
	return &Metrics{
		passesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repoprune_passes_total",
				Help: "Total number of retention passes completed",
			},
			[]string{"root", "mode"},
		),
		entriesDeleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repoprune_entries_deleted_total",
				Help: "Total number of entries deleted (or would-delete in dry-run)",
			},
			[]string{"root"},
		),
		deleteFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repoprune_delete_failures_total",
				Help: "Total number of failed delete calls",
			},
			[]string{"root"},
		),
		unclassifiable: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repoprune_entries_unclassifiable_total",
				Help: "Total number of entries excluded because no effective date could be resolved",
			},
			[]string{"root"},
		),
		rootsSkipped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "repoprune_roots_skipped_total",
				Help: "Total number of roots skipped due to listing failures",
			},
		),
		passDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "repoprune_pass_duration_seconds",
				Help:    "Duration of retention passes",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObservePass records the counters for one completed pass.
func (m *Metrics) ObservePass(result *engine.PassResult) {
	mode := "live"
	if result.DryRun {
		mode = "dry_run"
	}
	m.passesTotal.WithLabelValues(result.Root, mode).Inc()
	m.entriesDeleted.WithLabelValues(result.Root).Add(float64(result.Summary.Deleted))
	m.deleteFailures.WithLabelValues(result.Root).Add(float64(result.Summary.Failures))
	m.unclassifiable.WithLabelValues(result.Root).Add(float64(result.Summary.Unclassifiable))
	m.passDuration.Observe(result.Finished.Sub(result.Started).Seconds())
}

// ObserveSkippedRoot records a root that could not be processed.
func (m *Metrics) ObserveSkippedRoot() {
	m.rootsSkipped.Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
