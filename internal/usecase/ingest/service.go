package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
)

// Service encodes an entity and forwards its points to the vector store.
type Service struct {
	asm Assembler
	fwd Forwarder
}

// New creates an ingest service.
func New(asm Assembler, fwd Forwarder) *Service {
	return &Service{asm: asm, fwd: fwd}
}

// Embed assembles the entity and forwards the points. When forwarding fails the
// computed embeddings are discarded and the storage error is returned.
func (s *Service) Embed(
	ctx context.Context, entityType string, sections, metadata map[string]any,
) (*assembler.Assembled, error) {
	a, err := s.asm.Assemble(ctx, entityType, sections, metadata)
	if err != nil {
		return nil, err
	}

	err = s.fwd.Forward(ctx, &Batch{
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		IDs:        a.IDs,
		Vectors:    a.Vectors,
		Payloads:   a.Payloads,
	})
	if err != nil {
		logger.FromContext(ctx).Error("forward to vector store failed",
			zap.String("entity_type", string(a.EntityType)),
			zap.String("entity_id", a.EntityID),
			zap.Int("points", a.Len()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("add %s %s: %w", a.EntityType, a.EntityID, err)
	}
	return a, nil
}

// LocalForwarder writes into in-process gateways, one per entity type.
type LocalForwarder struct {
	gateways map[entity.Type]Upserter
}

// NewLocalForwarder creates a forwarder over per-entity gateways.
func NewLocalForwarder(gateways map[entity.Type]Upserter) *LocalForwarder {
	return &LocalForwarder{gateways: gateways}
}

// Forward upserts the batch into the entity's collection.
func (f *LocalForwarder) Forward(ctx context.Context, b *Batch) error {
	g, ok := f.gateways[b.EntityType]
	if !ok {
		return fmt.Errorf("no collection for entity %q: %w", b.EntityType, domain.ErrInvalidEntity)
	}
	if len(b.Vectors) == 0 {
		logger.FromContext(ctx).Warn("no valid embeddings to add",
			zap.String("entity_type", string(b.EntityType)),
			zap.String("entity_id", b.EntityID))
	}
	return g.Upsert(ctx, b.IDs, b.Vectors, b.Payloads)
}
