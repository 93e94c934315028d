package scoring

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
	"github.com/kailas-cloud/vecmatch/internal/domain/similarity"
)

const (
	// DefaultTopK is the result count when the caller does not set one.
	DefaultTopK = 10
	// DefaultThreshold is the minimum fuzzy score.
	DefaultThreshold = 0.8
)

// Service implements the direct, weighted, task-based and fuzzy strategies.
type Service struct {
	collections map[string]Searcher
	overFetch   int
}

// New creates a scoring service over named collections.
func New(collections map[string]Searcher) *Service {
	return &Service{collections: collections, overFetch: 1}
}

// WithFuzzyOverFetch makes fuzzy search fetch topK*factor candidates before thresholding.
// Factor 1 returns whatever survives the threshold out of the plain top-k.
func (s *Service) WithFuzzyOverFetch(factor int) *Service {
	if factor > 0 {
		s.overFetch = factor
	}
	return s
}

// Direct searches one section of a collection, ANDed with exact-match metadata filters.
func (s *Service) Direct(
	ctx context.Context, collection string, vector []float32, section string, topK int, metadata map[string]any,
) ([]result.Result, error) {
	if section == "" {
		return nil, fmt.Errorf("section is required: %w", domain.ErrInvalidQuery)
	}
	searcher, err := s.searcher(collection)
	if err != nil {
		return nil, err
	}

	filters := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		filters[k] = v
	}
	filters[entity.SectionField] = section

	res, err := searcher.Search(ctx, vector, orDefault(topK), filters)
	if err != nil {
		return nil, fmt.Errorf("direct search %s: %w", collection, err)
	}
	return res, nil
}

// Weighted scores a job/résumé pair locally. It walks the résumé sections, skips those the job
// lacks and sums cosine*weight, with weight 1.0 for sections not in weights. The sum is not normalized.
func (s *Service) Weighted(job, resume map[string][]float32, weights map[string]float64) float64 {
	return Weighted(job, resume, weights)
}

// Weighted is the stateless form of Service.Weighted.
func Weighted(job, resume map[string][]float32, weights map[string]float64) float64 {
	var total float64
	for section, rv := range resume {
		jv, ok := job[section]
		if !ok {
			continue
		}
		w, ok := weights[section]
		if !ok {
			w = 1.0
		}
		total += similarity.Cosine(jv, rv) * w
	}
	return total
}

// TaskBased searches the résumé experience section once per job task vector.
// The résumé embeddings are accepted for interface parity but do not influence the search.
func (s *Service) TaskBased(
	ctx context.Context, jobTasks map[string][]float32, _ map[string][]float32,
) (map[string][]result.Result, error) {
	out := make(map[string][]result.Result, len(jobTasks))
	for task, vec := range jobTasks {
		res, err := s.Direct(ctx, entity.TypeResume.Collection(), vec, entity.SectionExperience, DefaultTopK, nil)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
		out[task] = res
	}
	return out, nil
}

// Fuzzy returns the nearest points with score >= threshold, at most topK of them.
func (s *Service) Fuzzy(
	ctx context.Context, collection string, vector []float32, topK int, threshold float64,
) ([]result.Result, error) {
	searcher, err := s.searcher(collection)
	if err != nil {
		return nil, err
	}
	topK = orDefault(topK)

	res, err := searcher.Search(ctx, vector, topK*s.overFetch, nil)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search %s: %w", collection, err)
	}

	res = result.AboveThreshold(res, threshold)
	if len(res) > topK {
		res = res[:topK]
	}
	return res, nil
}

func (s *Service) searcher(collection string) (Searcher, error) {
	g, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	return g, nil
}

func orDefault(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	return topK
}
