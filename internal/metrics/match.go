package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match pipeline and catalog cache Prometheus metrics.
var (
	MatchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatormatch",
			Name:      "match_request_duration_seconds",
			Help:      "End-to-end match pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"outcome"}, // matched | fallback | empty
	)

	MatchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatormatch",
			Name:      "match_fallback_total",
			Help:      "Total match requests served in fallback (rule-only) mode",
		},
		[]string{"reason"},
	)

	CatalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatormatch",
			Name:      "catalog_refresh_total",
			Help:      "Total catalog cache refresh attempts by outcome",
		},
		[]string{"outcome"}, // success | error
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers Prometheus match/catalog metrics. Must be called
// once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestDuration)
	prometheus.MustRegister(MatchFallbackTotal)
	prometheus.MustRegister(CatalogRefreshTotal)
	matchMetricsRegistered = true
}
