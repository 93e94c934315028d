package encoder

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

// Embedder vectorizes a single text. If it also implements domain.BatchEmbedder,
// batch calls go through BatchEmbed; otherwise they fall back to one Embed per text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// MemoryReleaser frees cached accelerator memory after an exhaustion failure.
type MemoryReleaser interface {
	ReleaseMemory(ctx context.Context) error
}
