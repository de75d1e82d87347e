// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SynthesisOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vca_synthesis_outcomes_total",
			Help: "Total number of intelligence syntheses by outcome (success, fallback)",
		},
		[]string{"outcome"},
	)

	SynthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vca_synthesis_duration_seconds",
			Help:    "Duration of intelligence synthesis in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vca_upstream_requests_total",
			Help: "Total number of upstream requests by upstream and status class",
		},
		[]string{"upstream", "status"},
	)

	TokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vca_token_cache_lookups_total",
			Help: "Total number of token cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"

	UpstreamTekmetric = "tekmetric"
	UpstreamToken     = "tekmetric_token"
	UpstreamLLM       = "llm"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// StatusClass buckets an HTTP status into 2xx/4xx/5xx. Zero means the request
// never produced a response.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// RecordUpstream counts one upstream round trip.
func RecordUpstream(upstream string, status int) {
	UpstreamRequests.WithLabelValues(upstream, StatusClass(status)).Inc()
}
