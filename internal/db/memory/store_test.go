package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/filter"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	spec := &db.CollectionSpec{Name: "ResumeCollection", Dimension: 2}
	if err := s.RecreateCollection(context.Background(), spec); err != nil {
		t.Fatalf("RecreateCollection: %v", err)
	}
	return s
}

func TestStore_RecreateIsDestructive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	err := s.Upsert(ctx, "ResumeCollection", []db.Point{{ID: "a", Vector: []float32{1, 0}}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	spec := &db.CollectionSpec{Name: "ResumeCollection", Dimension: 2}
	for i := 0; i < 2; i++ {
		if err := s.RecreateCollection(ctx, spec); err != nil {
			t.Fatalf("RecreateCollection #%d: %v", i, err)
		}
		if n := s.Len("ResumeCollection"); n != 0 {
			t.Errorf("after recreate #%d: %d points, want 0", i, n)
		}
	}
}

func TestStore_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Upsert(ctx, "ResumeCollection", []db.Point{{ID: "a", Vector: []float32{1, 0}}})
	_ = s.Upsert(ctx, "ResumeCollection", []db.Point{{ID: "a", Vector: []float32{0, 1}}})

	if n := s.Len("ResumeCollection"); n != 1 {
		t.Fatalf("Len = %d, want 1", n)
	}
	res, err := s.SearchKNN(ctx, &db.KNNQuery{Collection: "ResumeCollection", Vector: []float32{0, 1}, K: 1})
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if res.Entries[0].Score < 0.999 {
		t.Errorf("expected replaced vector to match, score=%f", res.Entries[0].Score)
	}
}

func TestStore_UpsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.Upsert(context.Background(), "ResumeCollection", []db.Point{
		{ID: "ok", Vector: []float32{1, 0}},
		{ID: "bad", Vector: []float32{1, 0, 0}},
	})
	if !errors.Is(err, db.ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
	if n := s.Len("ResumeCollection"); n != 0 {
		t.Errorf("partial write: %d points", n)
	}
}

func TestStore_UpsertMissingCollection(t *testing.T) {
	err := NewStore().Upsert(context.Background(), "nope", []db.Point{{ID: "a", Vector: []float32{1}}})
	if !errors.Is(err, db.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Upsert(ctx, "ResumeCollection", []db.Point{{ID: "a", Vector: []float32{1, 0}}})

	if err := s.Delete(ctx, "ResumeCollection", []string{"missing"}); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if err := s.Delete(ctx, "ResumeCollection", []string{"a", "a"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := s.Len("ResumeCollection"); n != 0 {
		t.Errorf("Len = %d, want 0", n)
	}
}

func TestStore_SearchFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Upsert(ctx, "ResumeCollection", []db.Point{
		{ID: "s1", Vector: []float32{1, 0}, Payload: map[string]any{"section": "skills", "company": "acme"}},
		{ID: "s2", Vector: []float32{0.7, 0.7}, Payload: map[string]any{"section": "skills", "company": "globex"}},
		{ID: "e1", Vector: []float32{1, 0}, Payload: map[string]any{"section": "experience"}},
	})

	expr, _ := filter.AllOf(map[string]any{"section": "skills"})
	res, err := s.SearchKNN(ctx, &db.KNNQuery{Collection: "ResumeCollection", Vector: []float32{1, 0}, K: 10, Filters: expr})
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].ID != "s1" || res.Entries[1].ID != "s2" {
		t.Errorf("unexpected order: %s, %s", res.Entries[0].ID, res.Entries[1].ID)
	}

	expr, _ = filter.AllOf(map[string]any{"section": "skills", "company": "globex"})
	res, _ = s.SearchKNN(ctx, &db.KNNQuery{Collection: "ResumeCollection", Vector: []float32{1, 0}, K: 10, Filters: expr})
	if len(res.Entries) != 1 || res.Entries[0].ID != "s2" {
		t.Errorf("AND filter returned %+v", res.Entries)
	}
}

func TestStore_SearchTruncatesToK(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Upsert(ctx, "ResumeCollection", []db.Point{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0.9, 0.1}},
		{ID: "c", Vector: []float32{0, 1}},
	})
	res, _ := s.SearchKNN(ctx, &db.KNNQuery{Collection: "ResumeCollection", Vector: []float32{1, 0}, K: 2})
	if len(res.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(res.Entries))
	}
}
