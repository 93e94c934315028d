package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding provider Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecmatch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Adaptive batch encoder metrics.
var (
	EncoderBatchShrinksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "encoder_batch_shrinks_total",
			Help:      "Batch size reductions caused by encoder resource exhaustion",
		},
	)

	EncoderFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "encoder_fallbacks_total",
			Help:      "Batch slices re-encoded one item at a time",
		},
		[]string{"reason"}, // "error" / "exhausted"
	)

	EncoderItemFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "encoder_item_failures_total",
			Help:      "Texts that produced no vector",
		},
	)
)

var registerEmbeddingOnce sync.Once

// RegisterEmbeddingMetrics registers embedding provider, cache and encoder metrics. Safe to call repeatedly.
func RegisterEmbeddingMetrics() {
	registerEmbeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			EncoderBatchShrinksTotal,
			EncoderFallbacksTotal,
			EncoderItemFailuresTotal,
		)
	})
}
