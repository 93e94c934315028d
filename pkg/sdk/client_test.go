package vecmatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

func TestNew_NoDriver(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no vector store configured")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	_, err := createStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCreateStore_MissingAddress(t *testing.T) {
	cfg := &clientConfig{driver: driverQdrant}
	_, err := createStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestAdaptEmbedder_KeepsBatchCapability(t *testing.T) {
	single := adaptEmbedder(&mockEmbedder{})
	if _, ok := single.(domain.BatchEmbedder); ok {
		t.Error("single-text embedder must not be exposed as batch embedder")
	}

	batch := adaptEmbedder(&mockBatchEmbedder{
		batchFn: func(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
			return BatchEmbeddingResult{Embeddings: make([][]float32, len(texts)), TotalTokens: 7}, nil
		},
	})
	be, ok := batch.(domain.BatchEmbedder)
	if !ok {
		t.Fatal("expected batch embedder")
	}
	res, err := be.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 7 {
		t.Errorf("unexpected batch result: %+v", res)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	reg := prometheus.NewRegistry()
	logger := slog.Default()
	emb := &mockEmbedder{}

	opts := []Option{
		WithQdrant("qdrant:6334", "secret"),
		WithEmbedder(emb),
		WithInstructions("passage: ", "query: "),
		WithVectorDimensions(384),
		WithDistance(DistanceDot),
		WithHNSW(16, 200),
		WithBatchSize(32, 4),
		WithTimeout(5 * time.Second),
		WithFuzzyOverFetch(3),
		WithFilterFields("job_id", "resume_id"),
		WithLogger(logger),
		WithPrometheus(reg),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver != driverQdrant || cfg.addrs[0] != "qdrant:6334" || cfg.apiKey != "secret" {
		t.Errorf("unexpected qdrant options: %+v", cfg)
	}
	if cfg.embedder != emb {
		t.Error("embedder not set")
	}
	if cfg.docInstruction != "passage: " || cfg.queryInstruction != "query: " {
		t.Errorf("instructions = %q/%q", cfg.docInstruction, cfg.queryInstruction)
	}
	if cfg.vectorDimensions != 384 || cfg.distance != DistanceDot {
		t.Errorf("collection options = %d/%s", cfg.vectorDimensions, cfg.distance)
	}
	if cfg.hnswM != 16 || cfg.hnswEFConstruct != 200 {
		t.Errorf("hnsw = %d/%d", cfg.hnswM, cfg.hnswEFConstruct)
	}
	if cfg.batchSize != 32 || cfg.minBatchSize != 4 {
		t.Errorf("batch sizes = %d/%d", cfg.batchSize, cfg.minBatchSize)
	}
	if cfg.timeout != 5*time.Second || cfg.fuzzyOverFetch != 3 {
		t.Errorf("timeout/overfetch = %s/%d", cfg.timeout, cfg.fuzzyOverFetch)
	}
	if len(cfg.filterFields) != 2 {
		t.Errorf("filter fields = %v", cfg.filterFields)
	}
	if cfg.logger != logger || cfg.metricsReg != reg {
		t.Error("observability options not set")
	}
}

func TestDriverOptions(t *testing.T) {
	tests := []struct {
		name   string
		opt    Option
		driver string
		addrs  int
	}{
		{"redis", WithRedis("localhost:6379", "pw"), driverRedis, 1},
		{"milvus", WithMilvus("localhost:19530", "root", "Milvus", "default"), driverMilvus, 1},
		{"memory", WithMemory(), driverMemory, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &clientConfig{addrs: []string{"stale"}}
			tt.opt.apply(cfg)
			if cfg.driver != tt.driver {
				t.Errorf("driver = %q, want %q", cfg.driver, tt.driver)
			}
			if len(cfg.addrs) != tt.addrs {
				t.Errorf("addrs = %v", cfg.addrs)
			}
		})
	}
}

func TestObserver_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Второй клиент на том же registry переиспользует коллекторы
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("embed", time.Now(), nil)
	o.addTokens(10)
}
