package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dex_bridge"

// Metrics groups the relay and routing collectors.
type Metrics struct {
	DispatchedRequests *prometheus.CounterVec
	RejectedRequests   *prometheus.CounterVec
	DroppedResponses   *prometheus.CounterVec
	EvictedPending     prometheus.Counter
	PendingRequests    prometheus.Gauge
	ComputedRoutes     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DispatchedRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dapp",
			Name:      "requests_total",
			Help:      "Provider requests dispatched, by method.",
		}, []string{"method"}),
		RejectedRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dapp",
			Name:      "rejected_requests_total",
			Help:      "Provider requests answered with an error before reaching the background.",
		}, []string{"method", "reason"}),
		DroppedResponses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dapp",
			Name:      "dropped_responses_total",
			Help:      "Background responses without a matching pending request.",
		}, []string{"type"}),
		EvictedPending: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dapp",
			Name:      "evicted_pending_total",
			Help:      "Pending requests dropped by TTL or capacity before a response arrived.",
		}),
		PendingRequests: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dapp",
			Name:      "pending_requests",
			Help:      "Requests waiting for a background response.",
		}),
		ComputedRoutes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "computed_routes_total",
			Help:      "Routes rebuilt from quotes, by protocol.",
		}, []string{"protocol"}),
	}
}
