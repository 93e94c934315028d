package milvus

import (
	"context"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

const (
	defaultM           = 16
	defaultEFConstruct = 200
)

// RecreateCollection drops the collection if present, creates it with an HNSW index and loads it.
func (s *Store) RecreateCollection(ctx context.Context, spec *db.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}

	exists, err := s.CollectionExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(spec.Name)); err != nil {
			return &db.Error{Op: db.OpDropCollection, Err: err}
		}
	}

	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(spec.Name, buildSchema(spec))); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}

	idx := index.NewHNSWIndex(metricType(spec.Metric()), orDefault(spec.M, defaultM), orDefault(spec.EFConstruct, defaultEFConstruct))
	idxTask, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(spec.Name, vectorField, idx))
	if err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if err := idxTask.Await(ctx); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}

	loadTask, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(spec.Name))
	if err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if err := loadTask.Await(ctx); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}

	s.setMetric(spec.Name, spec.Metric())
	return nil
}

// DropCollection drops a collection.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return db.ErrCollectionNotFound
	}
	if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(name)); err != nil {
		return &db.Error{Op: db.OpDropCollection, Err: err}
	}
	return nil
}

// CollectionExists checks via HasCollection.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, &db.Error{Op: db.OpCollectionInfo, Err: err}
	}
	return ok, nil
}

func buildSchema(spec *db.CollectionSpec) *entity.Schema {
	return entity.NewSchema().
		WithName(spec.Name).
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(idField).
			WithDataType(entity.FieldTypeVarChar).
			WithIsPrimaryKey(true).
			WithMaxLength(idMaxLen)).
		WithField(entity.NewField().
			WithName(vectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(spec.Dimension))).
		WithField(entity.NewField().
			WithName(payloadField).
			WithDataType(entity.FieldTypeJSON))
}

func metricType(m db.DistanceMetric) entity.MetricType {
	switch m {
	case db.DistanceIP:
		return entity.IP
	case db.DistanceL2:
		return entity.L2
	default:
		return entity.COSINE
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
