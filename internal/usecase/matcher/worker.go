// Package matcher pairs buffered jobs and résumés arriving over pub/sub and publishes match scores.
package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

// Default channel names.
const (
	JobChannel    = "job_channel"
	ResumeChannel = "resume_channel"
	MatchChannel  = "match_channel"
)

// DefaultWeights favours skills over experience and education.
func DefaultWeights() map[string]float64 {
	return map[string]float64{"skills": 0.7, "experience": 0.2, "education": 0.1}
}

// Message is a job or résumé announced on a channel.
type Message struct {
	ID         string               `json:"id"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// Match is published once per scored pair.
type Match struct {
	JobID    string         `json:"job_id"`
	ResumeID string         `json:"resume_id"`
	Score    float64        `json:"score"`
	TaskHits map[string]int `json:"task_hits"`
}

// Config tunes the worker.
type Config struct {
	JobChannel    string
	ResumeChannel string
	MatchChannel  string
	Weights       map[string]float64
	Workers       int
}

func (c *Config) applyDefaults() {
	if c.JobChannel == "" {
		c.JobChannel = JobChannel
	}
	if c.ResumeChannel == "" {
		c.ResumeChannel = ResumeChannel
	}
	if c.MatchChannel == "" {
		c.MatchChannel = MatchChannel
	}
	if len(c.Weights) == 0 {
		c.Weights = DefaultWeights()
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
}

// Worker buffers incoming jobs and résumés. As soon as both buffers are non-empty it scores
// every pair, publishes the matches and clears both buffers.
type Worker struct {
	bus    Bus
	scorer Scorer
	cfg    Config
	pool   *ants.Pool
	logger *zap.Logger

	mu      sync.Mutex
	jobs    []Message
	resumes []Message
}

// New creates a matching worker. Call Close to release the pool.
func New(bus Bus, scorer Scorer, cfg Config, logger *zap.Logger) (*Worker, error) {
	cfg.applyDefaults()
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		logger.Error("matcher task panic recovered", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, fmt.Errorf("create matcher pool: %w", err)
	}
	return &Worker{bus: bus, scorer: scorer, cfg: cfg, pool: pool, logger: logger}, nil
}

// Run subscribes to the job and résumé channels and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("matcher subscribed",
		zap.String("job_channel", w.cfg.JobChannel),
		zap.String("resume_channel", w.cfg.ResumeChannel))

	err := w.bus.Subscribe(ctx, []string{w.cfg.JobChannel, w.cfg.ResumeChannel}, func(channel string, raw []byte) {
		w.Handle(ctx, channel, raw)
	})
	if err != nil {
		return fmt.Errorf("matcher subscribe: %w", err)
	}
	return nil
}

// Close releases the worker pool.
func (w *Worker) Close() { w.pool.Release() }

// Handle buffers one message and runs matching when both sides are present.
func (w *Worker) Handle(ctx context.Context, channel string, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.logger.Warn("matcher: bad message", zap.String("channel", channel), zap.Error(err))
		return
	}

	w.mu.Lock()
	switch channel {
	case w.cfg.JobChannel:
		w.jobs = append(w.jobs, msg)
	case w.cfg.ResumeChannel:
		w.resumes = append(w.resumes, msg)
	default:
		w.mu.Unlock()
		return
	}
	if len(w.jobs) == 0 || len(w.resumes) == 0 {
		w.logger.Debug("matcher waiting for both jobs and resumes",
			zap.Int("jobs", len(w.jobs)), zap.Int("resumes", len(w.resumes)))
		w.mu.Unlock()
		return
	}
	jobs, resumes := w.jobs, w.resumes
	w.jobs, w.resumes = nil, nil
	w.mu.Unlock()

	w.matchAll(ctx, jobs, resumes)
}

// Pending reports the buffered job and résumé counts.
func (w *Worker) Pending() (jobs, resumes int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.jobs), len(w.resumes)
}

func (w *Worker) matchAll(ctx context.Context, jobs, resumes []Message) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		for _, resume := range resumes {
			wg.Add(1)
			err := w.pool.Submit(func() {
				defer wg.Done()
				w.matchPair(ctx, job, resume)
			})
			if err != nil {
				wg.Done()
				w.logger.Error("matcher: submit pair", zap.String("job_id", job.ID),
					zap.String("resume_id", resume.ID), zap.Error(err))
			}
		}
	}
	wg.Wait()
	w.logger.Info("matching pass completed", zap.Int("jobs", len(jobs)), zap.Int("resumes", len(resumes)))
}

func (w *Worker) matchPair(ctx context.Context, job, resume Message) {
	m := Match{
		JobID:    job.ID,
		ResumeID: resume.ID,
		Score:    w.scorer.Weighted(job.Embeddings, resume.Embeddings, w.cfg.Weights),
		TaskHits: map[string]int{},
	}

	hits, err := w.scorer.TaskBased(ctx, job.Embeddings, resume.Embeddings)
	if err != nil {
		w.logger.Warn("matcher: task search failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	for task, res := range hits {
		for _, r := range res {
			if fmt.Sprint(r.Payload()[entity.TypeResume.IDKey()]) == resume.ID {
				m.TaskHits[task]++
			}
		}
	}

	raw, err := json.Marshal(m)
	if err != nil {
		w.logger.Error("matcher: marshal match", zap.Error(err))
		return
	}
	if err := w.bus.Publish(ctx, w.cfg.MatchChannel, raw); err != nil {
		w.logger.Error("matcher: publish match", zap.String("job_id", job.ID),
			zap.String("resume_id", resume.ID), zap.Error(err))
		return
	}
	metrics.MatcherPairsScoredTotal.Inc()
}
