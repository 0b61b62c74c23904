// Package metrics exposes Prometheus metrics for aggregation cycles and desk edits.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	cycles            *prometheus.CounterVec
	partitionFailures *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	bundles           prometheus.Gauge
	lastSuccess       prometheus.Gauge
	deskEdits         *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electioncalls_cycles_total",
				Help: "Aggregation cycles by outcome.",
			},
			[]string{"status"},
		),
		partitionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electioncalls_partition_failures_total",
				Help: "Partitions that could not be fully processed.",
			},
			[]string{"scope"},
		),
		cycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "electioncalls_cycle_duration_seconds",
				Help:    "Wall time of one snapshot, aggregate and publish cycle.",
				Buckets: prometheus.DefBuckets,
			},
		),
		bundles: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "electioncalls_published_bundles",
				Help: "Bundles written by the last published cycle.",
			},
		),
		lastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "electioncalls_last_publish_timestamp_seconds",
				Help: "Unix time of the last published cycle.",
			},
		),
		deskEdits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electioncalls_desk_edits_total",
				Help: "Editorial mutations by action.",
			},
			[]string{"action"},
		),
	}
}

// ObserveCycle records one cycle.
func (m *Metrics) ObserveCycle(status string, took time.Duration) {
	m.cycles.WithLabelValues(status).Inc()
	m.cycleDuration.Observe(took.Seconds())
}

// PartitionFailed counts a failed partition of the given scope kind. A broken
// race fails every partition that contains it, so it is counted once per scope.
func (m *Metrics) PartitionFailed(scope string) {
	m.partitionFailures.WithLabelValues(scope).Inc()
}

// Published records a successful publish.
func (m *Metrics) Published(n int, at time.Time) {
	m.bundles.Set(float64(n))
	m.lastSuccess.Set(float64(at.Unix()))
}

// DeskEdit counts an editorial mutation.
func (m *Metrics) DeskEdit(action string) {
	m.deskEdits.WithLabelValues(action).Inc()
}
