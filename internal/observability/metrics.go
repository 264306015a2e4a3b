package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the bridge.
type Metrics struct {
	ReportsReceived     prometheus.Counter
	ReportsIgnored      prometheus.Counter
	ObservationsEmitted prometheus.Counter

	// Per-report batch size.
	BatchSize prometheus.Histogram

	// Sink metrics.
	PublishErrors   *prometheus.CounterVec   // labels: sink={kafka,mqtt,stream,log}
	PublishDuration *prometheus.HistogramVec // labels: sink
	StreamClients   prometheus.Gauge
}

// NewMetrics creates and registers all bridge metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsReceived,
		m.ReportsIgnored,
		m.ObservationsEmitted,
		m.BatchSize,
		m.PublishErrors,
		m.PublishDuration,
		m.StreamClients,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecowitt_bridge",
			Name:      "reports_received_total",
			Help:      "Total gateway uploads decoded and translated.",
		}),
		ReportsIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecowitt_bridge",
			Name:      "reports_ignored_total",
			Help:      "Requests answered without translation (non-POST or undecodable body).",
		}),
		ObservationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecowitt_bridge",
			Name:      "observations_emitted_total",
			Help:      "Total observations produced by the translator.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ecowitt_bridge",
			Name:      "batch_size",
			Help:      "Number of observations per translated upload.",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 25, 30, 40},
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecowitt_bridge",
			Name:      "publish_errors_total",
			Help:      "Failed delta publishes by sink.",
		}, []string{"sink"}),
		PublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ecowitt_bridge",
			Name:      "publish_duration_seconds",
			Help:      "Time spent publishing one delta, by sink.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"sink"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecowitt_bridge",
			Name:      "stream_clients",
			Help:      "Websocket clients currently subscribed to the delta stream.",
		}),
	}
}
