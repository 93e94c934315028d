// Package hashembed is an offline embedding provider: feature-hashed bag of words, L2-normalized.
// Texts sharing words get positive cosine similarity, which is enough for local runs and tests
// without a model server.
package hashembed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/similarity"
)

// Embedder produces deterministic vectors of a fixed dimension.
type Embedder struct {
	dimensions int
}

// NewEmbedder returns a hashing embedder. Non-positive dimensions default to 768.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &Embedder{dimensions: dimensions}
}

// Embed implements domain.Embedder. Token count is the number of words.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	vec, tokens := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		vec, tokens := e.vector(t)
		res.Embeddings[i] = vec
		res.PromptTokens += tokens
		res.TotalTokens += tokens
	}
	return res, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

func (e *Embedder) vector(text string) ([]float32, int) {
	vec := make([]float32, e.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		// sign bit keeps collisions from only ever adding up
		sign := float32(1)
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[sum%uint64(e.dimensions)] += sign
	}
	if len(words) == 0 {
		vec[0] = 1 // empty text still yields a unit vector
	}
	similarity.Normalize(vec)
	return vec, len(words)
}
