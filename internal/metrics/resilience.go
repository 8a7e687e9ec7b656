package metrics

import "github.com/prometheus/client_golang/prometheus"

// Circuit breaker and retry Prometheus metrics.
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creatormatch",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per dependency: 0=closed 1=half_open 2=open",
		},
		[]string{"dependency"},
	)

	BreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatormatch",
			Name:      "breaker_transitions_total",
			Help:      "Total circuit breaker state transitions",
		},
		[]string{"dependency", "to_state"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatormatch",
			Name:      "retry_attempts_total",
			Help:      "Total retry attempts per dependency",
		},
		[]string{"dependency", "outcome"},
	)
)

var resilienceMetricsRegistered bool

// RegisterResilienceMetrics registers Prometheus breaker/retry metrics. Must be called
// once from main.
func RegisterResilienceMetrics() {
	if resilienceMetricsRegistered {
		return
	}
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(BreakerTransitionsTotal)
	prometheus.MustRegister(RetryAttemptsTotal)
	resilienceMetricsRegistered = true
}
