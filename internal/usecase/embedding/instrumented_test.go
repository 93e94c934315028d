package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result      domain.EmbeddingResult
	err         error
	batchResult domain.BatchEmbeddingResult
	batchErr    error
	batchCalls  int
	batchSizes  []int
	released    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	if m.batchResult.Embeddings != nil {
		return m.batchResult, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.result.PromptTokens * len(texts),
		TotalTokens:  m.result.TotalTokens * len(texts),
	}, nil
}

func (m *mockEmbedder) ReleaseMemory(_ context.Context) error {
	m.released++
	return nil
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.err }

// plainMockEmbedder implements only Embedder, not BatchEmbedder.
type plainMockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
}

func TestInstrumentedEmbedder_RecordsUsage(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, "test-usage", "test-model-u", zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := p.Embed(ctx, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.BatchEmbed(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokens, texts := usage.Totals()
	if tokens != 300 || texts != 3 {
		t.Errorf("usage = (%d tokens, %d texts), want (300, 3)", tokens, texts)
	}
}

func TestInstrumentedEmbedder_NoUsageCollector(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 5}}
	p := NewInstrumentedEmbedder(inner, "test", "m", zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: fmt.Errorf("api error")}
	p := NewInstrumentedEmbedder(inner, "test-err", "test-model-e", zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- BatchEmbed tests ---

func TestInstrumentedEmbedder_BatchEmbed_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	p := NewInstrumentedEmbedder(inner, "test-batch", "test-model-b", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", inner.batchCalls)
	}
	if res.TotalTokens != 30 {
		t.Errorf("expected 30 total tokens, got %d", res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewInstrumentedEmbedder(inner, "test", "m", zap.NewNop()).WithMaxBatch(2)

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 5 {
		t.Fatalf("expected 5 embeddings, got %d", len(res.Embeddings))
	}
	if fmt.Sprint(inner.batchSizes) != "[2 2 1]" {
		t.Errorf("chunk sizes = %v, want [2 2 1]", inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil for empty input")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_KeepsResourceExhausted(t *testing.T) {
	inner := &mockEmbedder{batchErr: fmt.Errorf("CUDA out of memory: %w", domain.ErrResourceExhausted)}
	p := NewInstrumentedEmbedder(inner, "test-oom", "model", zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	// Inner без BatchEmbedder — fallback
	inner := &plainMockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	p := NewInstrumentedEmbedder(inner, "test-fb", "model", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 fallback Embed calls, got %d", inner.calls)
	}
}

func TestInstrumentedEmbedder_ForwardsOptionalCapabilities(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "m", zap.NewNop())

	if err := p.ReleaseMemory(context.Background()); err != nil {
		t.Fatal(err)
	}
	if inner.released != 1 {
		t.Errorf("expected release to reach inner embedder, got %d", inner.released)
	}

	inner.err = errors.New("down")
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error from inner embedder")
	}

	plain := NewInstrumentedEmbedder(&plainMockEmbedder{}, "test", "m", zap.NewNop())
	if err := plain.ReleaseMemory(context.Background()); err != nil {
		t.Errorf("release on plain embedder: %v", err)
	}
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("health on plain embedder: %v", err)
	}
}
