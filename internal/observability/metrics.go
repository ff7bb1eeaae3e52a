package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precip_ingest"

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion and serving.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec   // labels: source, outcome
	FetchDuration    *prometheus.HistogramVec // labels: source
	LastIngested     *prometheus.GaugeVec     // labels: source
	PollerRunning    prometheus.Gauge
	BackfillInstants *prometheus.CounterVec // labels: source, result={fetched,skipped,failed}
	PublishErrors    prometheus.Counter
	SeriesCache      *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.LastIngested,
		m.PollerRunning,
		m.BackfillInstants,
		m.PublishErrors,
		m.SeriesCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Fetch attempts by source and outcome classification.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single fetch including decode and publish.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"source"}),
		LastIngested: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_ingested_timestamp_seconds",
			Help:      "Product instant of the most recent successful ingest, as a Unix timestamp.",
		}, []string{"source"}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the live poller is active, 0 when shut down.",
		}),
		BackfillInstants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_instants_total",
			Help:      "Backfill instants by source and result.",
		}, []string{"source", "result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Artifact notifications that could not be delivered.",
		}),
		SeriesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_cache_total",
			Help:      "Forecast series cache lookups by result.",
		}, []string{"result"}),
	}
}
