package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/filter"
)

// SearchKNN runs an ANN search with a JSON-path pre-filter.
// Strong consistency makes points written just before the query visible to it.
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

	opt := milvusclient.NewSearchOption(q.Collection, q.K, []entity.Vector{entity.FloatVector(q.Vector)}).
		WithANNSField(vectorField).
		WithOutputFields(payloadField).
		WithConsistencyLevel(entity.ClStrong)
	if expr := buildExpr(q.Filters); expr != "" {
		opt = opt.WithFilter(expr)
	}

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(results) == 0 {
		return &db.SearchResult{}, nil
	}

	entries, err := parseResultSet(results[0], s.metricOf(q.Collection))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return &db.SearchResult{Entries: entries}, nil
}

// parseResultSet flattens one query's hits. L2 distances are negated so higher is always better.
func parseResultSet(rs milvusclient.ResultSet, metric db.DistanceMetric) ([]db.SearchEntry, error) {
	if rs.Err != nil {
		return nil, rs.Err
	}
	ids, ok := rs.IDs.(*column.ColumnVarChar)
	if !ok && rs.ResultCount > 0 {
		return nil, fmt.Errorf("unexpected id column type %T", rs.IDs)
	}

	var payloads *column.ColumnJSONBytes
	for _, f := range rs.Fields {
		if c, ok := f.(*column.ColumnJSONBytes); ok && c.Name() == payloadField {
			payloads = c
		}
	}

	entries := make([]db.SearchEntry, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		score := float64(rs.Scores[i])
		if metric == db.DistanceL2 {
			score = -score
		}
		entry := db.SearchEntry{ID: ids.Data()[i], Score: score}
		if payloads != nil {
			if err := json.Unmarshal(payloads.Data()[i], &entry.Payload); err != nil {
				return nil, fmt.Errorf("parse payload of %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries, nil
}

// buildExpr translates filter.Expression into a Milvus boolean expression over the payload JSON field.
func buildExpr(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string
	for _, c := range expr.Must() {
		parts = append(parts, matchExpr(c))
	}
	if should := expr.Should(); len(should) > 0 {
		alts := make([]string, len(should))
		for i, c := range should {
			alts[i] = matchExpr(c)
		}
		parts = append(parts, "("+strings.Join(alts, " or ")+")")
	}
	for _, c := range expr.MustNot() {
		parts = append(parts, "not ("+matchExpr(c)+")")
	}
	return strings.Join(parts, " and ")
}

func matchExpr(c filter.Condition) string {
	path := payloadField + "[" + strconv.Quote(c.Key()) + "]"
	switch c.Kind() {
	case filter.KindString:
		return path + " == " + strconv.Quote(c.String())
	default:
		return path + " == " + c.Text()
	}
}
