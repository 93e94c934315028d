package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single HTTP request.
// The handler puts a pointer into the context, the instrumented embedder writes to it,
// and the handler reads it back for the X-Embedding-Tokens header.
// Batch encoding may write from several goroutines, hence the mutex.
type EmbeddingUsage struct {
	mu          sync.Mutex
	totalTokens int
	texts       int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records consumed tokens for n encoded texts.
func (u *EmbeddingUsage) Add(tokens, n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.totalTokens += tokens
	u.texts += n
	u.mu.Unlock()
}

// Totals returns the accumulated token count and number of encoded texts.
func (u *EmbeddingUsage) Totals() (tokens, texts int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens, u.texts
}
