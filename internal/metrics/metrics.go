// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration is labelled by route template, not raw path, to keep
	// cardinality bounded.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bistro",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bistro",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// Payments counts reconciler outcomes per flow ("card", "sslcommerz").
	Payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistro",
			Subsystem: "payments",
			Name:      "outcomes_total",
			Help:      "Payment reconciliation outcomes.",
		},
		[]string{"flow", "outcome"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistro",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the token bucket.",
		},
		[]string{"bucket"},
	)

	// LedgerEvents counts payment.completed deliveries by result.
	LedgerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistro",
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "payment.completed events consumed.",
		},
		[]string{"result"}, // "recorded" | "duplicate" | "failed"
	)
)

// Registry is private to the service so tests can create fresh servers
// without colliding with the default registerer.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration,
		RequestsInFlight,
		Payments,
		RateLimited,
		LedgerEvents,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
