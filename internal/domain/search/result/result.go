package result

// Result is a single search hit.
type Result struct {
	id      string
	score   float64
	payload map[string]any
}

// New creates a search result.
func New(id string, score float64, payload map[string]any) Result {
	return Result{id: id, score: score, payload: payload}
}

// ID returns the point identifier.
func (r Result) ID() string { return r.id }

// Score returns the similarity score (higher is closer for cosine).
func (r Result) Score() float64 { return r.score }

// Payload returns the point payload.
func (r Result) Payload() map[string]any { return r.payload }

// AboveThreshold keeps results whose score is >= threshold, preserving order.
func AboveThreshold(results []Result, threshold float64) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.score >= threshold {
			out = append(out, r)
		}
	}
	return out
}
