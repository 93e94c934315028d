package encoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

// DefaultMaxExhaustedRetries bounds repeated exhaustion at the minimum batch size.
const DefaultMaxExhaustedRetries = 3

// Config tunes the adaptive encoder.
type Config struct {
	// MaxExhaustedRetries is how many times a slice at the minimum batch size may be retried
	// after exhaustion before it is encoded one item at a time.
	MaxExhaustedRetries int
	// Timeout bounds every provider call (one batch or one text). Zero disables it.
	Timeout time.Duration
}

// Service turns texts into vectors, shrinking the batch under memory pressure
// and degrading to per-item encoding on other failures.
type Service struct {
	embedder Embedder
	releaser MemoryReleaser
	cfg      Config
	logger   *zap.Logger
}

// New creates an encoder. releaser may be nil.
func New(embedder Embedder, releaser MemoryReleaser, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxExhaustedRetries <= 0 {
		cfg.MaxExhaustedRetries = DefaultMaxExhaustedRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, releaser: releaser, cfg: cfg, logger: logger}
}

// EncodeMany encodes texts in order. The result has one entry per text; nil marks a text
// that could not be encoded. The batch size starts at initialBatchSize, halves (never below
// minBatchSize) on resource exhaustion and never grows back within the call.
// Only context cancellation is returned as an error.
func (s *Service) EncodeMany(ctx context.Context, texts []string, initialBatchSize, minBatchSize int) ([][]float32, error) {
	minBatchSize = max(minBatchSize, 1)
	batchSize := max(initialBatchSize, minBatchSize)

	out := make([][]float32, 0, len(texts))
	exhaustedAtMin := 0

	for i := 0; i < len(texts); {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("encode many: %w", err)
		}

		end := min(i+batchSize, len(texts))
		slice := texts[i:end]

		vectors, err := s.encodeBatch(ctx, slice)
		switch {
		case err == nil:
			out = append(out, vectors...)
			i = end
			exhaustedAtMin = 0

		case errors.Is(err, domain.ErrResourceExhausted):
			s.releaseMemory(ctx)
			if batchSize > minBatchSize {
				next := max(minBatchSize, batchSize/2)
				s.logger.Warn("encoder exhausted, shrinking batch",
					zap.Int("from", batchSize), zap.Int("to", next), zap.Int("cursor", i))
				metrics.EncoderBatchShrinksTotal.Inc()
				batchSize = next
				continue
			}

			exhaustedAtMin++
			if exhaustedAtMin <= s.cfg.MaxExhaustedRetries {
				continue
			}
			s.logger.Warn("encoder exhausted at minimum batch size, encoding items one by one",
				zap.Int("batch_size", batchSize), zap.Int("cursor", i), zap.Int("retries", exhaustedAtMin-1))
			metrics.EncoderFallbacksTotal.WithLabelValues("exhausted").Inc()
			out = append(out, s.encodeEach(ctx, slice)...)
			i = end
			exhaustedAtMin = 0

		default:
			s.logger.Warn("batch encode failed, encoding items one by one",
				zap.Int("batch_size", len(slice)), zap.Int("cursor", i), zap.Error(err))
			metrics.EncoderFallbacksTotal.WithLabelValues("error").Inc()
			out = append(out, s.encodeEach(ctx, slice)...)
			i = end
		}
	}

	return out, nil
}

// EncodeOne encodes a single text. It never fails: errors are logged with a stack trace
// and reported as a nil vector.
func (s *Service) EncodeOne(ctx context.Context, text string) []float32 {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.embedder.Embed(ctx, text)
	if err == nil && len(res.Embedding) == 0 {
		err = domain.ErrEncodeFailed
	}
	if err != nil {
		metrics.EncoderItemFailuresTotal.Inc()
		s.logger.Error("encode failed",
			zap.Int("text_len", len(text)),
			zap.Error(err),
			zap.Stack("stack"),
		)
		return nil
	}
	return res.Embedding
}

func (s *Service) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embedder, texts)
	}
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("batch returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}
	for i, v := range res.Embeddings {
		if len(v) == 0 {
			metrics.EncoderItemFailuresTotal.Inc()
			s.logger.Error("encoder returned empty vector", zap.Int("index", i))
			res.Embeddings[i] = nil
		}
	}
	return res.Embeddings, nil
}

func (s *Service) encodeEach(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.EncodeOne(ctx, t)
	}
	return out
}

func (s *Service) releaseMemory(ctx context.Context) {
	if s.releaser == nil {
		return
	}
	if err := s.releaser.ReleaseMemory(ctx); err != nil {
		s.logger.Warn("release accelerator memory failed", zap.Error(err))
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
