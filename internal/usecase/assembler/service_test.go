package assembler

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
)

// --- Mocks ---

type mockEncoder struct {
	encodeOneFn  func(ctx context.Context, text string) []float32
	encodeManyFn func(ctx context.Context, texts []string, initial, minimum int) ([][]float32, error)

	oneCalls  []string
	manyCalls [][]string
	initial   int
}

func (m *mockEncoder) EncodeOne(ctx context.Context, text string) []float32 {
	m.oneCalls = append(m.oneCalls, text)
	if m.encodeOneFn != nil {
		return m.encodeOneFn(ctx, text)
	}
	return []float32{float32(len(text))}
}

func (m *mockEncoder) EncodeMany(ctx context.Context, texts []string, initial, minimum int) ([][]float32, error) {
	m.manyCalls = append(m.manyCalls, texts)
	m.initial = initial
	if m.encodeManyFn != nil {
		return m.encodeManyFn(ctx, texts, initial, minimum)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestAssemble_BuildsOnePointPerSection(t *testing.T) {
	enc := &mockEncoder{}
	svc := New(enc, 0)

	got, err := svc.Assemble(context.Background(), "resume",
		map[string]any{"skills": "go, redis", "experience": "5 years"},
		map[string]any{"resume_id": "r-1", "name": "Ada"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.EntityType != entity.TypeResume || got.EntityID != "r-1" {
		t.Errorf("unexpected entity: %s/%s", got.EntityType, got.EntityID)
	}
	if got.Len() != 2 || len(got.Vectors) != 2 || len(got.Payloads) != 2 || len(got.Embeddings) != 2 {
		t.Fatalf("expected 2 parallel points, got %+v", got)
	}
	if got.IDs[0] == got.IDs[1] {
		t.Error("expected distinct point ids")
	}
	for _, id := range got.IDs {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("id %q is not a UUID", id)
		}
	}

	// sections are processed in name order
	want := map[string]any{"resume_id": "r-1", "name": "Ada", "section": "experience"}
	if !reflect.DeepEqual(got.Payloads[0], want) {
		t.Errorf("payload[0] = %v, want %v", got.Payloads[0], want)
	}
	if got.Payloads[1]["section"] != "skills" {
		t.Errorf("payload[1] section = %v", got.Payloads[1]["section"])
	}
}

func TestAssemble_FreshIDsOnEveryCall(t *testing.T) {
	svc := New(&mockEncoder{}, 0)
	sections := map[string]any{"skills": "go"}

	a, _ := svc.Assemble(context.Background(), "job", sections, nil)
	b, _ := svc.Assemble(context.Background(), "job", sections, nil)
	if a.IDs[0] == b.IDs[0] {
		t.Error("repeated writes must not reuse point ids")
	}
	if a.EntityID != entity.UnknownID {
		t.Errorf("expected unknown entity id, got %q", a.EntityID)
	}
}

func TestAssemble_DoesNotMutateMetadata(t *testing.T) {
	meta := map[string]any{"job_id": "j-1"}
	if _, err := New(&mockEncoder{}, 0).Assemble(context.Background(), "job",
		map[string]any{"skills": "go"}, meta); err != nil {
		t.Fatal(err)
	}
	if _, ok := meta["section"]; ok {
		t.Error("metadata map was mutated")
	}
}

func TestAssemble_SkipsFailedSections(t *testing.T) {
	enc := &mockEncoder{encodeOneFn: func(_ context.Context, text string) []float32 {
		if text == "broken" {
			return nil
		}
		return []float32{1}
	}}

	got, err := New(enc, 0).Assemble(context.Background(), "job",
		map[string]any{"skills": "go", "education": "broken"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 || got.Payloads[0]["section"] != "skills" {
		t.Errorf("expected only skills, got %+v", got)
	}
	if _, ok := got.Embeddings["education"]; ok {
		t.Error("failed section leaked into embeddings")
	}
}

func TestAssemble_StringifiesValues(t *testing.T) {
	enc := &mockEncoder{}
	_, err := New(enc, 0).Assemble(context.Background(), "resume",
		map[string]any{"years": float64(5), "skills": []any{"go", "sql"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"go\nsql", "5"}
	if !reflect.DeepEqual(enc.oneCalls, want) {
		t.Errorf("encoded texts = %q, want %q", enc.oneCalls, want)
	}
}

func TestAssemble_InvalidRequest(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		sections   map[string]any
	}{
		{"missing entity type", "", map[string]any{"skills": "go"}},
		{"empty sections", "job", map[string]any{}},
		{"unknown entity", "company", map[string]any{"skills": "go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &mockEncoder{}
			_, err := New(enc, 0).Assemble(context.Background(), tt.entityType, tt.sections, nil)
			if !errors.Is(err, domain.ErrInvalidEntity) {
				t.Fatalf("expected ErrInvalidEntity, got %v", err)
			}
			if len(enc.oneCalls) != 0 {
				t.Error("encoder must not be called for invalid input")
			}
		})
	}
}

func TestAssembleBatch_DropsNullsAndUsesBatchSize(t *testing.T) {
	enc := &mockEncoder{}
	got, err := New(enc, 0).AssembleBatch(context.Background(), "job", map[string][]*string{
		"skills": {strPtr("go"), nil, strPtr("rust")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(enc.manyCalls, [][]string{{"go", "rust"}}) {
		t.Errorf("EncodeMany calls = %v", enc.manyCalls)
	}
	if enc.initial != DefaultBatchSize {
		t.Errorf("initial batch size = %d, want %d", enc.initial, DefaultBatchSize)
	}
	if len(got["skills"]) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(got["skills"]))
	}
}

func TestAssembleBatch_PropagatesCancellation(t *testing.T) {
	enc := &mockEncoder{encodeManyFn: func(context.Context, []string, int, int) ([][]float32, error) {
		return nil, context.Canceled
	}}
	_, err := New(enc, 8).AssembleBatch(context.Background(), "resume", map[string][]*string{"skills": {strPtr("go")}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAssembleBatch_InvalidRequest(t *testing.T) {
	enc := &mockEncoder{}
	_, err := New(enc, 0).AssembleBatch(context.Background(), "", map[string][]*string{"skills": nil})
	if !errors.Is(err, domain.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
	if len(enc.manyCalls) != 0 {
		t.Error("encoder must not be called for invalid input")
	}
}

func TestQuery(t *testing.T) {
	enc := &mockEncoder{}
	svc := New(enc, 0)

	if _, err := svc.Query(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}

	vec, err := svc.Query(context.Background(), "golang")
	if err != nil || len(vec) != 1 {
		t.Errorf("unexpected result %v, %v", vec, err)
	}

	enc.encodeOneFn = func(context.Context, string) []float32 { return nil }
	if _, err := svc.Query(context.Background(), "golang"); !errors.Is(err, domain.ErrEncodeFailed) {
		t.Errorf("expected ErrEncodeFailed, got %v", err)
	}
}

func TestQuery_UsesQueryEncoder(t *testing.T) {
	docs := &mockEncoder{}
	queries := &mockEncoder{}
	svc := New(docs, 0).WithQueryEncoder(queries)

	if _, err := svc.Query(context.Background(), "golang"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs.oneCalls) != 0 || len(queries.oneCalls) != 1 {
		t.Errorf("query went to the wrong encoder: docs=%d queries=%d", len(docs.oneCalls), len(queries.oneCalls))
	}
}

func TestAssembleBatch_MinBatchSize(t *testing.T) {
	var gotMin int
	enc := &mockEncoder{encodeManyFn: func(_ context.Context, texts []string, _, minimum int) ([][]float32, error) {
		gotMin = minimum
		return make([][]float32, len(texts)), nil
	}}
	_, err := New(enc, 16).WithMinBatchSize(4).AssembleBatch(context.Background(), "job",
		map[string][]*string{"skills": {strPtr("go")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMin != 4 {
		t.Errorf("min batch size = %d, want 4", gotMin)
	}
}
