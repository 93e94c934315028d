package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

const provider = "ollama"

// Config holds the local model server settings.
type Config struct {
	BaseURL   string
	Model     string
	KeepAlive time.Duration // how long the model stays loaded between calls; 0 keeps the server default
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Embedder encodes texts with a model served by Ollama. It runs on the local accelerator,
// so it reports memory pressure as domain.ErrResourceExhausted and can unload the model on demand.
type Embedder struct {
	client    *api.Client
	model     string
	keepAlive *api.Duration
	logger    *zap.Logger
}

// NewEmbedder creates an Ollama embedder.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	e := &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
	if cfg.KeepAlive > 0 {
		e.keepAlive = &api.Duration{Duration: cfg.KeepAlive}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder via /api/embed with a list input.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model:     e.model,
		Input:     texts,
		KeepAlive: e.keepAlive,
	})
	duration := time.Since(start)

	if err != nil {
		wrapped := parseError(err)
		errType := "api_error"
		if errors.Is(wrapped, domain.ErrResourceExhausted) {
			errType = "resource_exhausted"
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, errType).Inc()
		return domain.BatchEmbeddingResult{}, wrapped
	}

	if len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(resp.Embeddings), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())
	if resp.PromptEvalCount > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(provider, e.model, "prompt").Add(float64(resp.PromptEvalCount))
		metrics.EmbeddingTokensTotal.WithLabelValues(provider, e.model, "total").Add(float64(resp.PromptEvalCount))
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   resp.Embeddings,
		PromptTokens: resp.PromptEvalCount,
		TotalTokens:  resp.PromptEvalCount,
	}, nil
}

// ReleaseMemory implements domain.MemoryReleaser: a generate call with keep_alive=0 unloads the model,
// freeing its accelerator memory. The next embed call reloads it.
func (e *Embedder) ReleaseMemory(ctx context.Context) error {
	req := &api.GenerateRequest{
		Model:     e.model,
		KeepAlive: &api.Duration{Duration: 0},
	}
	if err := e.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return fmt.Errorf("unload model %s: %w", e.model, err)
	}
	e.logger.Debug("ollama model unloaded", zap.String("model", e.model))
	return nil
}

// HealthCheck pings the server.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// parseError maps Ollama status errors to domain errors. Memory pressure becomes ErrResourceExhausted.
func parseError(err error) error {
	var se api.StatusError
	if errors.As(err, &se) {
		msg := se.ErrorMessage
		if msg == "" {
			msg = se.Status
		}
		if isExhausted(se.StatusCode, msg) {
			return fmt.Errorf("ollama error %d: %s: %w", se.StatusCode, msg, domain.ErrResourceExhausted)
		}
		return fmt.Errorf("ollama error %d: %s: %w", se.StatusCode, msg, domain.ErrEmbeddingProviderError)
	}
	if isExhausted(0, err.Error()) {
		return fmt.Errorf("ollama request failed: %v: %w", err, domain.ErrResourceExhausted)
	}
	return fmt.Errorf("ollama request failed: %v: %w", err, domain.ErrEmbeddingProviderError)
}

func isExhausted(status int, msg string) bool {
	if status == http.StatusInsufficientStorage {
		return true
	}
	m := strings.ToLower(msg)
	return strings.Contains(m, "out of memory") ||
		strings.Contains(m, "requires more system memory") ||
		strings.Contains(m, "cudamalloc failed")
}
