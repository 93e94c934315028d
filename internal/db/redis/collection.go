package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Reserved hash fields. Payload keys never collide with them because of the "__" prefix.
const (
	vectorField  = "__vector"
	payloadField = "__payload"
	scoreField   = "__vector_score"
)

// RecreateCollection drops the FT index and every point key, then creates an empty index.
func (s *Store) RecreateCollection(ctx context.Context, spec *db.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if err := s.DropCollection(ctx, spec.Name); err != nil && !errors.Is(err, db.ErrCollectionNotFound) {
		return err
	}

	args := buildCreateArgs(s.indexName(spec.Name), s.keyPrefixFor(spec.Name), spec)
	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrCollectionExists
		}
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}

// DropCollection removes the FT index and deletes the collection's point keys.
// Keys are removed even when the index is already gone, so a half-dropped collection is cleaned up.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	var notFound bool
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.indexName(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if !isRedisErr(err, "unknown index name") && !isRedisErr(err, "not found") {
			return &db.Error{Op: db.OpDropCollection, Err: err}
		}
		notFound = true
	}

	keys, err := s.scan(ctx, s.keyPrefixFor(name)+"*")
	if err != nil {
		return err
	}
	if err := s.delKeys(ctx, keys); err != nil {
		return err
	}

	if notFound {
		return db.ErrCollectionNotFound
	}
	return nil
}

// CollectionExists probes the index via FT.INFO; "unknown index name" means absent.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.indexName(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpCollectionInfo, Err: err}
	}
	return true, nil
}

// scan iterates keys matching a pattern.
func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpDropCollection, Err: fmt.Errorf("scan: %w", err)}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// delKeys removes keys in chunks so a large collection does not build one huge DEL.
func (s *Store) delKeys(ctx context.Context, keys []string) error {
	const chunk = 500
	if len(keys) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(keys)/chunk+1)
	for start := 0; start < len(keys); start += chunk {
		end := min(start+chunk, len(keys))
		cmds = append(cmds, s.b().Del().Key(keys[start:end]...).Build())
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpDelete, Err: err}
		}
	}
	return nil
}

func buildCreateArgs(index, prefix string, spec *db.CollectionSpec) []string {
	args := []string{index, "ON", "HASH", "PREFIX", "1", prefix, "SCHEMA"}

	for _, f := range spec.FilterFields {
		args = append(args, f, "TAG", "CASESENSITIVE")
	}

	args = append(args, vectorField)
	args = append(args, buildVectorFieldArgs(spec)...)
	return args
}

func buildVectorFieldArgs(spec *db.CollectionSpec) []string {
	algo := spec.Algorithm
	if algo == "" {
		algo = db.VectorHNSW
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(spec.Dimension),
		"DISTANCE_METRIC", string(spec.Metric()),
	}

	if algo == db.VectorHNSW {
		if spec.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(spec.M))
		}
		if spec.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(spec.EFConstruct))
		}
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	result = append(result, attrs...)
	return result
}
