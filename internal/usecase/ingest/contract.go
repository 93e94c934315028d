package ingest

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
)

// Assembler encodes entity sections into points.
type Assembler interface {
	Assemble(ctx context.Context, entityType string, sections, metadata map[string]any) (*assembler.Assembled, error)
}

// Forwarder hands assembled points to the vector store, in process or over the network.
type Forwarder interface {
	Forward(ctx context.Context, batch *Batch) error
}

// Upserter writes points into one collection.
type Upserter interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []map[string]any) error
}

// Batch is the add request for one entity.
type Batch struct {
	EntityType entity.Type
	EntityID   string
	IDs        []string
	Vectors    [][]float32
	Payloads   []map[string]any
}
