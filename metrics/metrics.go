package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeOK labels an operation that returned a result instead of an error.
const OutcomeOK = "ok"

// Collector holds the Prometheus metrics for sandbox operations.
// Uses a custom registry, no global state.
type Collector struct {
	Registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TruncationsTotal  *prometheus.CounterVec
	ActiveOperations  prometheus.Gauge
}

// New creates a Collector with all metrics registered on a custom prometheus.Registry.
func New() *Collector {
	reg := prometheus.NewRegistry()

	m := &Collector{
		Registry: reg,

		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fsbox",
			Name:      "operations_total",
			Help:      "Total sandbox operations by outcome.",
		}, []string{"operation", "outcome"}),

		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fsbox",
			Name:      "operation_duration_seconds",
			Help:      "Sandbox operation duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"operation"}),

		TruncationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fsbox",
			Name:      "truncations_total",
			Help:      "Results cut at the configured size limit.",
		}, []string{"operation"}),

		ActiveOperations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fsbox",
			Name:      "active_operations",
			Help:      "Number of operations currently running.",
		}),
	}

	reg.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.TruncationsTotal,
		m.ActiveOperations,
	)

	return m
}

// Start marks an operation as running and returns a func that records its
// outcome and duration. Call it exactly once.
func (m *Collector) Start(operation string) func(outcome string) {
	m.ActiveOperations.Inc()
	started := time.Now()
	return func(outcome string) {
		m.ActiveOperations.Dec()
		m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}
}

// Truncated counts a result that was cut short.
func (m *Collector) Truncated(operation string) {
	m.TruncationsTotal.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
