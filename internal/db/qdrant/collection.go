package qdrant

import (
	"context"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// RecreateCollection deletes the collection when present and creates it empty,
// then adds a keyword index per filter field.
func (s *Store) RecreateCollection(ctx context.Context, spec *db.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	ctx = s.auth(ctx)

	exists, err := s.CollectionExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: spec.Name}); err != nil {
			return wrap(db.OpDropCollection, err)
		}
	}

	req := &pb.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: distance(spec.Metric()),
		}),
		HnswConfig: hnswConfig(spec),
	}
	if _, err := s.collections.Create(ctx, req); err != nil {
		return wrap(db.OpCreateCollection, err)
	}

	for _, field := range spec.FilterFields {
		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: spec.Name,
			Wait:           pb.PtrOf(true),
			FieldName:      field,
			FieldType:      pb.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return wrap(db.OpCreateCollection, err)
		}
	}
	return nil
}

// DropCollection deletes a collection.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	ctx = s.auth(ctx)
	resp, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name})
	if err != nil {
		return wrap(db.OpDropCollection, err)
	}
	if !resp.GetResult() {
		return db.ErrCollectionNotFound
	}
	return nil
}

// CollectionExists asks the server directly.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := s.collections.CollectionExists(s.auth(ctx), &pb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, wrap(db.OpCollectionInfo, err)
	}
	return resp.GetResult().GetExists(), nil
}

func distance(m db.DistanceMetric) pb.Distance {
	switch m {
	case db.DistanceIP:
		return pb.Distance_Dot
	case db.DistanceL2:
		return pb.Distance_Euclid
	default:
		return pb.Distance_Cosine
	}
}

func hnswConfig(spec *db.CollectionSpec) *pb.HnswConfigDiff {
	if spec.M <= 0 && spec.EFConstruct <= 0 {
		return nil
	}
	cfg := &pb.HnswConfigDiff{}
	if spec.M > 0 {
		cfg.M = pb.PtrOf(uint64(spec.M))
	}
	if spec.EFConstruct > 0 {
		cfg.EfConstruct = pb.PtrOf(uint64(spec.EFConstruct))
	}
	return cfg
}
