package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds the Prometheus metrics exposed on /metrics. Each
// server carries its own registry so tests can run side by side.
type MetricsRegistry struct {
	registry *prometheus.Registry

	IngestedRecords *prometheus.CounterVec
	RejectedRecords prometheus.Counter
	ScoringDuration prometheus.Histogram
	RankedDeposits  prometheus.Gauge
	WSClients       prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
}

// NewMetricsRegistry creates a registry with all reescan metrics registered.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		IngestedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reescan_ingested_records_total",
				Help: "Raw records accepted per ingestion source type",
			},
			[]string{"source"},
		),

		RejectedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reescan_rejected_records_total",
				Help: "Raw records dropped by validation",
			},
		),

		ScoringDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reescan_scoring_duration_seconds",
				Help:    "Duration of a full ranking computation",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		RankedDeposits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reescan_ranked_deposits",
				Help: "Deposits in the latest ranking",
			},
		),

		WSClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reescan_ws_clients",
				Help: "Connected websocket clients",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reescan_http_requests_total",
				Help: "API requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
	}

	m.registry.MustRegister(
		m.IngestedRecords,
		m.RejectedRecords,
		m.ScoringDuration,
		m.RankedDeposits,
		m.WSClients,
		m.HTTPRequests,
	)

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *MetricsRegistry) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSnapshot records scoring metrics for a freshly built snapshot.
func (m *MetricsRegistry) ObserveSnapshot(ranked int, seconds float64) {
	m.RankedDeposits.Set(float64(ranked))
	m.ScoringDuration.Observe(seconds)
}

// ObservePass records ingestion metrics for a completed pass.
func (m *MetricsRegistry) ObservePass(ingestedBySource map[string]int, rejected int) {
	for source, n := range ingestedBySource {
		m.IngestedRecords.WithLabelValues(source).Add(float64(n))
	}
	m.RejectedRecords.Add(float64(rejected))
}
