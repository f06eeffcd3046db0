package observability

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for URLsTotal.
const (
	ResultInserted = "inserted"
	ResultUpdated  = "updated"
	ResultFailed   = "failed"
	ResultDryRun   = "dry_run"
)

// Metrics tracks one ingestion run on a private registry, exported with
// WriteTextfile when the run ends.
type Metrics struct {
	registry *prometheus.Registry

	URLsTotal      *prometheus.CounterVec
	StageFailures  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	URLDuration    prometheus.Histogram
	TagsLinked     prometheus.Counter
	LastRunSuccess prometheus.Gauge

	logger *slog.Logger
}

// NewMetrics creates and registers the run metrics.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		URLsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkarchive_urls_total",
			Help: "URLs processed, by result (inserted, updated, failed, dry_run)",
		}, []string{"result"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkarchive_stage_failures_total",
			Help: "Per-URL failures by ingestion stage",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkarchive_stage_duration_seconds",
			Help:    "Time spent in each ingestion stage",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		URLDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkarchive_url_duration_seconds",
			Help:    "End-to-end time to ingest one URL",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		TagsLinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkarchive_tags_linked_total",
			Help: "Tag links written to the archive",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linkarchive_last_run_success",
			Help: "1 if every URL in the last run succeeded, else 0",
		}),
		logger: logger.With("component", "metrics"),
	}
}

// ObserveStage records one stage execution. It matches pipeline.StageHook.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveURL records the outcome of one URL.
func (m *Metrics) ObserveURL(result string, d time.Duration) {
	m.URLsTotal.WithLabelValues(result).Inc()
	m.URLDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry in text exposition format to path,
// for pickup by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	m.logger.Debug("metrics written", "path", path)
	return nil
}
