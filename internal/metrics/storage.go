package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Vector store gateway and matcher metrics.
var (
	GatewayOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecmatch",
			Name:      "gateway_operation_duration_seconds",
			Help:      "Vector store gateway call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection", "op"},
	)

	GatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "gateway_errors_total",
			Help:      "Vector store gateway failures",
		},
		[]string{"collection", "op"},
	)

	MatcherPairsScoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "matcher_pairs_scored_total",
			Help:      "Job/resume pairs scored by the matching worker",
		},
	)
)

var registerStorageOnce sync.Once

// RegisterStorageMetrics registers gateway and matcher metrics. Safe to call repeatedly.
func RegisterStorageMetrics() {
	registerStorageOnce.Do(func() {
		prometheus.MustRegister(
			GatewayOperationDuration,
			GatewayErrorsTotal,
			MatcherPairsScoredTotal,
		)
	})
}
