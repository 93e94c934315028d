package vecmatch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single call.
// Optional: if the provided Embedder also implements BatchEmbedder,
// the adaptive encoder sends whole batches instead of one text at a time.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// MemoryReleaser is implemented by local model servers that can drop cached accelerator memory.
// When the embedder returns an error wrapping ErrResourceExhausted the encoder calls it
// before retrying with a smaller batch.
type MemoryReleaser interface {
	ReleaseMemory(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter exposes a public Embedder to the internal pipeline.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// batchEmbedderAdapter is used when the public embedder batches natively.
type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func adaptEmbedder(e Embedder) domain.Embedder {
	if e == nil {
		return noopEmbedder{}
	}
	base := embedderAdapter{inner: e}
	if b, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: b}
	}
	return &base
}

// noopEmbedder fails every call; used when no embedder is configured.
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("no embedder configured: %w", domain.ErrEmbeddingProviderError)
}
