package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for scoring calls and enforcement.
type Metrics struct {
	CallsTotal           *prometheus.CounterVec
	CallLatency          *prometheus.HistogramVec
	EnforcementDecisions *prometheus.CounterVec
}

// New creates and registers all scoring metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		CallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_scoring_calls_total",
			Help: "Total scoring API calls, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskgate_scoring_call_duration_seconds",
			Help:    "Latency of scoring API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		EnforcementDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_enforcement_decisions_total",
			Help: "Enforcement decisions applied to authentication flows",
		}, []string{"decision"}),
	}
}

// ObserveCall records one scoring call with its outcome and duration.
func (m *Metrics) ObserveCall(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(operation, outcome).Inc()
	m.CallLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveDecision records one enforcement decision.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.EnforcementDecisions.WithLabelValues(decision).Inc()
}
