package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/vecmatch/internal/logger"
)

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := JSONRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/embed", http.NoBody))

	expectError(t, rr, http.StatusInternalServerError, CodeInternalError)
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected panic to be logged")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var ctxLogger *zap.Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logpkg.FromContext(r.Context())
		w.Header().Set("X-Embedding-Tokens", "12")
		w.WriteHeader(http.StatusCreated)
	})
	handler := chiMiddleware.RequestID(WideEventMiddleware(zap.New(core))(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/embed", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if ctxLogger == nil {
		t.Fatal("expected request logger in context")
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one wide event, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["embedding_tokens"] != "12" {
		t.Errorf("embedding_tokens field = %v", fields["embedding_tokens"])
	}
	if fields["request_id"] == "" {
		t.Error("expected request_id field")
	}
}
