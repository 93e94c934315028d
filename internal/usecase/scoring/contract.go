package scoring

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
)

// Searcher runs filtered nearest-neighbor search against one collection.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, filters map[string]any) ([]result.Result, error)
}
