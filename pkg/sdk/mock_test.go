package vecmatch

import (
	"context"
	"sync"
)

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// tableEmbedder maps known texts to fixed 4-dim vectors; anything else lands on the last axis.
type tableEmbedder struct {
	mu    sync.Mutex
	table map[string][]float32
	seen  []string
}

func newTableEmbedder() *tableEmbedder {
	return &tableEmbedder{table: map[string][]float32{
		"go":      {1, 0, 0, 0},
		"backend": {0, 1, 0, 0},
		"python":  {0, 0, 1, 0},
	}}
}

func (e *tableEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.mu.Lock()
	e.seen = append(e.seen, text)
	e.mu.Unlock()

	vec, ok := e.table[text]
	if !ok {
		vec = []float32{0, 0, 0, 1}
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return EmbeddingResult{Embedding: out, PromptTokens: 2, TotalTokens: 2}, nil
}

func (e *tableEmbedder) texts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.seen...)
}
