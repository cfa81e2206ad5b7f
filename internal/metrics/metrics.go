// Package metrics exposes Prometheus counters for throttle and quota
// decisions. Counters are registered on a caller-supplied registry so tests
// can use an isolated one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision label values.
const (
	DecisionAllowed   = "allowed"
	DecisionThrottled = "throttled"
	DecisionExceeded  = "exceeded"
	DecisionError     = "error"
)

// Metrics holds the counters recorded by the rate limiter and quota
// tracker.
type Metrics struct {
	RateLimitDecisions *prometheus.CounterVec
	QuotaDecisions     *prometheus.CounterVec
}

// New registers the counters on reg and returns the recording handle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RateLimitDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat_guard",
			Name:      "rate_limit_decisions_total",
			Help:      "Fixed-window limiter decisions partitioned by endpoint and outcome.",
		}, []string{"endpoint", "decision"}),
		QuotaDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat_guard",
			Name:      "quota_decisions_total",
			Help:      "Daily chat quota decisions partitioned by outcome.",
		}, []string{"decision"}),
	}
}

// RecordRateLimit increments the limiter decision counter.
func (m *Metrics) RecordRateLimit(endpoint, decision string) {
	if m == nil {
		return
	}
	m.RateLimitDecisions.WithLabelValues(endpoint, decision).Inc()
}

// RecordQuota increments the quota decision counter.
func (m *Metrics) RecordQuota(decision string) {
	if m == nil {
		return
	}
	m.QuotaDecisions.WithLabelValues(decision).Inc()
}
