package matcher

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
)

// Scorer computes the pair score and the task-based hits.
type Scorer interface {
	Weighted(job, resume map[string][]float32, weights map[string]float64) float64
	TaskBased(ctx context.Context, jobTasks, resumeEmb map[string][]float32) (map[string][]result.Result, error)
}

// Bus is the pub/sub transport for incoming entities and outgoing matches.
type Bus interface {
	db.Publisher
	db.Subscriber
}
