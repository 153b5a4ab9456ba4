package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generator (RAG chat-completion) Prometheus metrics.
var (
	GeneratorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voucherd",
			Name:      "generator_requests_total",
			Help:      "Total number of RAG generator requests",
		},
		[]string{"provider", "model", "status"},
	)

	GeneratorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voucherd",
			Name:      "generator_request_duration_seconds",
			Help:      "RAG generator request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider", "model"},
	)

	GeneratorTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voucherd",
			Name:      "generator_tokens_total",
			Help:      "Total generator tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	RAGFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voucherd",
			Name:      "rag_fallback_total",
			Help:      "Total RAG requests that downgraded to the templated fallback answer",
		},
		[]string{"reason"},
	)

	GeoBoostAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voucherd",
			Name:      "geo_boost_applied_total",
			Help:      "Total results boosted by ranking factor",
		},
		[]string{"ranking_factor"},
	)
)

var generatorMetricsRegistered bool

// RegisterGeneratorMetrics registers Prometheus generator/RAG metrics. Must be called once from main.
func RegisterGeneratorMetrics() {
	if generatorMetricsRegistered {
		return
	}
	prometheus.MustRegister(GeneratorRequestsTotal)
	prometheus.MustRegister(GeneratorRequestDuration)
	prometheus.MustRegister(GeneratorTokensTotal)
	prometheus.MustRegister(RAGFallbackTotal)
	prometheus.MustRegister(GeoBoostAppliedTotal)
	generatorMetricsRegistered = true
}
