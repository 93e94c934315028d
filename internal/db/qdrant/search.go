package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/filter"
)

// SearchKNN runs a filtered nearest-neighbor search. Qdrant returns hits best-first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	resp, err := s.points.Search(s.auth(ctx), &pb.SearchPoints{
		CollectionName: q.Collection,
		Vector:         q.Vector,
		Filter:         buildFilter(q.Filters),
		Limit:          uint64(q.K),
		WithPayload:    pb.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrap(db.OpSearch, err)
	}

	entries := make([]db.SearchEntry, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		entries = append(entries, db.SearchEntry{
			ID:      pointID(sp.GetId()),
			Score:   float64(sp.GetScore()),
			Payload: payloadFromValues(sp.GetPayload()),
		})
	}
	return &db.SearchResult{Entries: entries}, nil
}

// buildFilter translates filter.Expression into a Qdrant filter. Empty expressions yield nil.
func buildFilter(expr filter.Expression) *pb.Filter {
	if expr.IsEmpty() {
		return nil
	}
	return &pb.Filter{
		Must:    conditions(expr.Must()),
		Should:  conditions(expr.Should()),
		MustNot: conditions(expr.MustNot()),
	}
}

func conditions(conds []filter.Condition) []*pb.Condition {
	if len(conds) == 0 {
		return nil
	}
	out := make([]*pb.Condition, len(conds))
	for i, c := range conds {
		switch c.Kind() {
		case filter.KindInt:
			out[i] = pb.NewMatchInt(c.Key(), c.Int())
		case filter.KindBool:
			out[i] = pb.NewMatchBool(c.Key(), c.Bool())
		default:
			out[i] = pb.NewMatchKeyword(c.Key(), c.String())
		}
	}
	return out
}
