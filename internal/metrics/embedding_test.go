package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterStorageMetrics()
	RegisterStorageMetrics()
}

func TestEncoderCounters(t *testing.T) {
	before := testutil.ToFloat64(EncoderFallbacksTotal.WithLabelValues("exhausted"))
	EncoderFallbacksTotal.WithLabelValues("exhausted").Inc()
	if got := testutil.ToFloat64(EncoderFallbacksTotal.WithLabelValues("exhausted")); got != before+1 {
		t.Errorf("encoder_fallbacks_total = %f, want %f", got, before+1)
	}
}
