package milvus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Upsert writes points column-wise; existing primary keys are replaced.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}
	cols, err := buildColumns(points)
	if err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	if _, err := s.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(collection, cols...)); err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// Delete removes points by primary key. Unknown keys are ignored by the server.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.client.Delete(ctx, milvusclient.NewDeleteOption(collection).WithStringIDs(idField, ids)); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

func buildColumns(points []db.Point) ([]column.Column, error) {
	dim := len(points[0].Vector)
	ids := make([]string, len(points))
	vectors := make([][]float32, len(points))
	payloads := make([][]byte, len(points))

	for i, p := range points {
		if len(p.Vector) != dim {
			return nil, fmt.Errorf("%w: point %s has dimension %d, batch has %d", db.ErrInvalidPoint, p.ID, len(p.Vector), dim)
		}
		if len(p.ID) > idMaxLen {
			return nil, fmt.Errorf("%w: point id longer than %d", db.ErrInvalidPoint, idMaxLen)
		}
		raw, err := json.Marshal(payloadOrEmpty(p.Payload))
		if err != nil {
			return nil, fmt.Errorf("%w: point %s payload: %v", db.ErrInvalidPoint, p.ID, err)
		}
		ids[i] = p.ID
		vectors[i] = p.Vector
		payloads[i] = raw
	}

	return []column.Column{
		column.NewColumnVarChar(idField, ids),
		column.NewColumnFloatVector(vectorField, dim, vectors),
		column.NewColumnJSONBytes(payloadField, payloads),
	}, nil
}

func payloadOrEmpty(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
