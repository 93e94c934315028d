package db

import "github.com/kailas-cloud/vecmatch/internal/domain/search/filter"

// Point is a single vector with its payload, as written to a backend.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Collection string
	Filters    filter.Expression
	Vector     []float32
	K          int
}

// SearchResult is the output of a search operation, ordered by descending score.
type SearchResult struct {
	Entries []SearchEntry
}

// SearchEntry is a single point hit from a search.
type SearchEntry struct {
	ID      string
	Score   float64
	Payload map[string]any
}
