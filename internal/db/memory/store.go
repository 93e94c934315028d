// Package memory is an in-process vector index using brute-force search.
// Suitable for tests, the SDK and small datasets when no external index is available.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/vecmatch/internal/domain/similarity"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type collection struct {
	spec   db.CollectionSpec
	order  []string
	points map[string]db.Point
}

// Store implements db.Store in memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// RecreateCollection replaces any existing collection with an empty one.
func (s *Store) RecreateCollection(_ context.Context, spec *db.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[spec.Name] = &collection{spec: *spec, points: make(map[string]db.Point)}
	return nil
}

// DropCollection removes a collection.
func (s *Store) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return db.ErrCollectionNotFound
	}
	delete(s.collections, name)
	return nil
}

// CollectionExists reports whether a collection exists.
func (s *Store) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// Upsert copies points into the collection, replacing existing ids.
func (s *Store) Upsert(_ context.Context, name string, points []db.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return &db.Error{Op: db.OpUpsert, Err: db.ErrCollectionNotFound}
	}

	// validate the whole batch first so a bad point leaves the collection untouched
	for _, p := range points {
		if len(p.Vector) != c.spec.Dimension {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("%w: point %s dimension %d, expected %d",
				db.ErrInvalidPoint, p.ID, len(p.Vector), c.spec.Dimension)}
		}
	}

	for _, p := range points {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		payload := make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = v
		}
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = db.Point{ID: p.ID, Vector: vec, Payload: payload}
	}
	return nil
}

// Delete removes points by id; unknown ids are ignored.
func (s *Store) Delete(_ context.Context, name string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return &db.Error{Op: db.OpDelete, Err: db.ErrCollectionNotFound}
	}

	removed := false
	for _, id := range ids {
		if _, ok := c.points[id]; ok {
			delete(c.points, id)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	order := make([]string, 0, len(c.points))
	for _, id := range c.order {
		if _, ok := c.points[id]; ok {
			order = append(order, id)
		}
	}
	c.order = order
	return nil
}

// SearchKNN scores every point passing the filter and returns the top K.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[q.Collection]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrCollectionNotFound}
	}
	if len(q.Vector) != c.spec.Dimension {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("query dimension %d, expected %d",
			len(q.Vector), c.spec.Dimension)}
	}

	entries := make([]db.SearchEntry, 0, len(c.points))
	for _, id := range c.order {
		p := c.points[id]
		if !matches(q.Filters, p.Payload) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			ID:      p.ID,
			Score:   score(c.spec.Metric(), q.Vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Entries: entries}, nil
}

// Len returns the number of points in a collection (0 if absent).
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.points)
	}
	return 0
}

// score returns a higher-is-closer value for every metric.
func score(metric db.DistanceMetric, a, b []float32) float64 {
	switch metric {
	case db.DistanceIP:
		return similarity.Dot(a, b)
	case db.DistanceL2:
		return -similarity.L2Distance(a, b)
	default:
		return similarity.Cosine(a, b)
	}
}

func matches(expr filter.Expression, payload map[string]any) bool {
	for _, c := range expr.Must() {
		if !c.Matches(payload[c.Key()]) {
			return false
		}
	}
	for _, c := range expr.MustNot() {
		if c.Matches(payload[c.Key()]) {
			return false
		}
	}
	if should := expr.Should(); len(should) > 0 {
		for _, c := range should {
			if c.Matches(payload[c.Key()]) {
				return true
			}
		}
		return false
	}
	return true
}
