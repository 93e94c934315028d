package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentVectorStore = "vector_store"
	ComponentEmbedding   = "embedding"
	ComponentCache       = "cache"
)

const defaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     Pinger
	embedding EmbeddingChecker
	cache     Pinger
	timeout   time.Duration
}

// New creates a Service. embedding can be nil.
func New(store Pinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding, timeout: defaultCheckTimeout}
}

// WithCache adds the embedding cache to the report.
func (s *Service) WithCache(cache Pinger) *Service {
	s.cache = cache
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentVectorStore] = s.run(ctx, ComponentVectorStore, s.store.Ping)
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.run(ctx, ComponentEmbedding, s.embedding.HealthCheck)
	}
	if s.cache != nil {
		checks[ComponentCache] = s.run(ctx, ComponentCache, s.cache.Ping)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentVectorStore] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, name string, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.FromContext(ctx).Warn("health check failed", zap.String("component", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
