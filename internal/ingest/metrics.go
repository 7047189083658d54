package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons recorded by Metrics.
const (
	SkipDuplicate = "duplicate"
	SkipOversized = "oversized"
	SkipEmpty     = "empty"
)

// Metrics holds the ingestion collectors. A nil *Metrics records nothing.
type Metrics struct {
	commitsSkipped   *prometheus.CounterVec
	commitsProcessed prometheus.Counter
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commitsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commitscope_ingest_commits_skipped_total",
			Help: "Commits skipped by a policy gate, by reason.",
		}, []string{"reason"}),
		commitsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commitscope_ingest_commits_processed_total",
			Help: "Commits enriched and inserted into the store.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commitscope_ingest_runs_total",
			Help: "Ingestion runs, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "commitscope_ingest_run_seconds",
			Help:    "Duration of ingestion runs.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.commitsSkipped, m.commitsProcessed, m.runs, m.runDuration)
	}
	return m
}

func (m *Metrics) skipped(reason string) {
	if m == nil {
		return
	}
	m.commitsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) processed() {
	if m == nil {
		return
	}
	m.commitsProcessed.Inc()
}

func (m *Metrics) run(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(seconds)
}
