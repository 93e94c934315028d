package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/config"
	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	"github.com/kailas-cloud/vecmatch/internal/repository/embcache"
	"github.com/kailas-cloud/vecmatch/internal/transport/hashembed"
	ollamaEmb "github.com/kailas-cloud/vecmatch/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/vecmatch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecmatch/internal/usecase/embedding"
	encoderuc "github.com/kailas-cloud/vecmatch/internal/usecase/encoder"
)

// newProvider creates the base embedding provider (with transport metrics built-in).
func newProvider(cfg *config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   config.ProviderOpenAI,
			Logger:     logger,
		}), nil
	case config.ProviderOllama:
		return ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			KeepAlive: time.Duration(cfg.KeepAliveSec) * time.Second,
			Timeout:   cfg.Timeout(),
			Logger:    logger,
		})
	case config.ProviderHash:
		return hashembed.NewEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
func buildEmbedder(
	base domain.Embedder,
	cfg *config.EmbeddingConfig,
	instruction string,
	cache db.KVStore,
	ttl time.Duration,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger).
		WithMaxBatch(cfg.MaxAPIBatchSize)

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// releaserOf returns the memory releaser for an embedder chain built on base, or nil when the
// provider cannot free memory. Release goes through the decorators so they can observe it.
func releaserOf(base, chain domain.Embedder) encoderuc.MemoryReleaser {
	r, ok := base.(domain.MemoryReleaser)
	if !ok {
		return nil
	}
	if cr, ok := chain.(domain.MemoryReleaser); ok {
		return cr
	}
	return r
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
