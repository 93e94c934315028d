package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/usecase/ingest"
)

func TestClient_Forward(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	err := c.Forward(context.Background(), &ingest.Batch{
		EntityType: entity.TypeResume,
		EntityID:   "r-7",
		IDs:        []string{"7f1b6f0e-8a55-4c1e-9a51-0e8f3f2b9d01"},
		Vectors:    [][]float32{{0.5, 0.25}},
		Payloads:   []map[string]any{{"section": "skills"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/resume/add" {
		t.Errorf("path = %q, want /resume/add", gotPath)
	}
	if gotBody["resume_id"] != "r-7" {
		t.Errorf("resume_id = %v", gotBody["resume_id"])
	}
	if ids, ok := gotBody["ids"].([]any); !ok || len(ids) != 1 {
		t.Errorf("ids = %v", gotBody["ids"])
	}
	if vecs, ok := gotBody["vectors"].([]any); !ok || len(vecs) != 1 {
		t.Errorf("vectors = %v", gotBody["vectors"])
	}
}

func TestClient_Forward_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "qdrant down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Forward(context.Background(), &ingest.Batch{EntityType: entity.TypeJob})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestClient_Forward_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, time.Second).Forward(context.Background(), &ingest.Batch{EntityType: entity.TypeJob})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
