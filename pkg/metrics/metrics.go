package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the service's Prometheus metrics on its own registry.
type Collector struct {
	registry          *prometheus.Registry
	ledgerOperations  *prometheus.CounterVec
	operationDuration prometheus.Histogram
}

// NewCollector builds a collector with the ledger counters registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		ledgerOperations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total ledger operations by kind and outcome",
		}, []string{"kind", "outcome"}),
		operationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time spent inside a ledger unit of work",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordLedgerOperation counts one completed or failed ledger operation.
func (c *Collector) RecordLedgerOperation(kind string, duration time.Duration, success bool) {
	outcome := "completed"
	if !success {
		outcome = "failed"
	}
	c.ledgerOperations.WithLabelValues(kind, outcome).Inc()
	c.operationDuration.Observe(duration.Seconds())
}

// Handler exposes the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
