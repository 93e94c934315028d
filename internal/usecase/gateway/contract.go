package gateway

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Store is the vector index the gateway writes to and reads from.
type Store interface {
	RecreateCollection(ctx context.Context, spec *db.CollectionSpec) error
	Upsert(ctx context.Context, collection string, points []db.Point) error
	Delete(ctx context.Context, collection string, ids []string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}
