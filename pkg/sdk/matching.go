package vecmatch

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	scoringuc "github.com/kailas-cloud/vecmatch/internal/usecase/scoring"
)

// Embed encodes every section of one entity and stores one point per section.
// Sections that fail to encode are skipped; metadata is copied into every point payload.
func (c *Client) Embed(
	ctx context.Context, e Entity, sections, metadata map[string]any,
) (_ *Embedded, err error) {
	start := time.Now()
	defer func() { c.obs.observe("embed", start, err) }()

	ctx, usage := domain.NewContextWithUsage(ctx)
	a, err := c.ingestSvc.Embed(ctx, string(e), sections, metadata)
	if err != nil {
		return nil, err
	}
	tokens, _ := usage.Totals()
	c.obs.addTokens(tokens)

	return &Embedded{
		EntityID:   a.EntityID,
		PointIDs:   a.IDs,
		Embeddings: a.Embeddings,
		Tokens:     tokens,
	}, nil
}

// BatchEmbed encodes lists of texts per section without storing anything.
// Items that fail to encode come back as nil vectors at their position.
func (c *Client) BatchEmbed(
	ctx context.Context, e Entity, sections map[string][]string,
) (_ map[string][][]float32, err error) {
	start := time.Now()
	defer func() { c.obs.observe("batch_embed", start, err) }()

	in := make(map[string][]*string, len(sections))
	for name, texts := range sections {
		ptrs := make([]*string, len(texts))
		for i := range texts {
			ptrs[i] = &texts[i]
		}
		in[name] = ptrs
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	out, err := c.asmSvc.AssembleBatch(ctx, string(e), in)
	tokens, _ := usage.Totals()
	c.obs.addTokens(tokens)
	return out, err
}

// QueryEmbed encodes a free-text query with the query instruction.
func (c *Client) QueryEmbed(ctx context.Context, text string) (_ []float32, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query_embed", start, err) }()

	return c.asmSvc.Query(ctx, text)
}

// Add upserts precomputed points. ids must be UUIDs; the three slices are parallel.
func (c *Client) Add(
	ctx context.Context, e Entity, ids []string, vectors [][]float32, payloads []map[string]any,
) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("add", start, err) }()

	_, g, err := c.resolve(e)
	if err != nil {
		return err
	}
	return g.Upsert(ctx, ids, vectors, payloads)
}

// Delete removes points by id. Unknown ids are ignored.
func (c *Client) Delete(ctx context.Context, e Entity, ids ...string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	_, g, err := c.resolve(e)
	if err != nil {
		return err
	}
	return g.Delete(ctx, ids)
}

// Search returns the nearest points of one section, ANDed with exact-match metadata filters.
// topK <= 0 means 10.
func (c *Client) Search(
	ctx context.Context, e Entity, vector []float32, section string, topK int, metadata map[string]any,
) (_ []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	et, _, err := c.resolve(e)
	if err != nil {
		return nil, err
	}
	res, err := c.scoringSvc.Direct(ctx, et.Collection(), vector, section, topK, metadata)
	if err != nil {
		return nil, err
	}
	return toResults(res), nil
}

// FuzzySearch returns at most topK nearest points scoring at least threshold, across all sections.
func (c *Client) FuzzySearch(
	ctx context.Context, e Entity, vector []float32, topK int, threshold float64,
) (_ []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("fuzzy_search", start, err) }()

	et, _, err := c.resolve(e)
	if err != nil {
		return nil, err
	}
	res, err := c.scoringSvc.Fuzzy(ctx, et.Collection(), vector, topK, threshold)
	if err != nil {
		return nil, err
	}
	return toResults(res), nil
}

// TaskBasedSearch searches résumé experience once per job task vector.
func (c *Client) TaskBasedSearch(
	ctx context.Context, jobTasks, resume map[string][]float32,
) (_ map[string][]Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("task_based_search", start, err) }()

	res, err := c.scoringSvc.TaskBased(ctx, jobTasks, resume)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Result, len(res))
	for task, hits := range res {
		out[task] = toResults(hits)
	}
	return out, nil
}

// WeightedScore sums per-section cosine similarity times weight over the sections both sides have.
// Sections missing from weights count with weight 1, so nil weights give the unweighted sum.
// Pass DefaultWeights for the matcher's weighting.
func WeightedScore(job, resume map[string][]float32, weights map[string]float64) float64 {
	return scoringuc.Weighted(job, resume, weights)
}
