package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms and gauges for the
// ingestion pipeline.
type Metrics struct {
	RowsStaged   *prometheus.CounterVec // label: feed
	RowsDropped  *prometheus.CounterVec // label: feed
	RowsUpserted *prometheus.CounterVec // label: feed

	BatchDuration prometheus.Histogram
	BatchRunning  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsStaged,
		m.RowsDropped,
		m.RowsUpserted,
		m.BatchDuration,
		m.BatchRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsStaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hanoiair",
			Name:      "ingest_rows_staged_total",
			Help:      "Raw rows staged per feed, before validation.",
		}, []string{"feed"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hanoiair",
			Name:      "ingest_rows_dropped_total",
			Help:      "Rows dropped per feed for malformed fields or unresolvable references.",
		}, []string{"feed"}),
		RowsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hanoiair",
			Name:      "ingest_rows_upserted_total",
			Help:      "Rows committed to the store per feed.",
		}, []string{"feed"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hanoiair",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of one feed batch from stage to audit log.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hanoiair",
			Name:      "ingest_batch_running",
			Help:      "1 while a feed batch is being processed, 0 otherwise.",
		}),
	}
}
