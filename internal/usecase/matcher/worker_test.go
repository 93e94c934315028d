package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
)

type fakeBus struct {
	mu        sync.Mutex
	published []Match
	channels  []string
	incoming  []struct{ channel, msg string }
	pubErr    error
}

func (b *fakeBus) Publish(_ context.Context, channel string, message []byte) error {
	if b.pubErr != nil {
		return b.pubErr
	}
	var m Match
	if err := json.Unmarshal(message, &m); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.published = append(b.published, m)
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ []string, fn db.MessageHandler) error {
	for _, in := range b.incoming {
		fn(in.channel, []byte(in.msg))
	}
	return nil
}

type fakeScorer struct {
	weights map[string]float64
	taskErr error
}

func (s *fakeScorer) Weighted(_, _ map[string][]float32, weights map[string]float64) float64 {
	s.weights = weights
	return 0.42
}

func (s *fakeScorer) TaskBased(_ context.Context, jobTasks, _ map[string][]float32) (map[string][]result.Result, error) {
	if s.taskErr != nil {
		return nil, s.taskErr
	}
	out := make(map[string][]result.Result, len(jobTasks))
	for task := range jobTasks {
		out[task] = []result.Result{
			result.New("p1", 0.9, map[string]any{"resume_id": "r1"}),
			result.New("p2", 0.8, map[string]any{"resume_id": "other"}),
		}
	}
	return out, nil
}

func newWorker(t *testing.T, bus *fakeBus, scorer *fakeScorer) *Worker {
	t.Helper()
	w, err := New(bus, scorer, Config{Workers: 2}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func msg(t *testing.T, id string) []byte {
	t.Helper()
	raw, err := json.Marshal(Message{ID: id, Embeddings: map[string][]float32{"skills": {1, 0}}})
	require.NoError(t, err)
	return raw
}

func TestWorker_WaitsForBothSides(t *testing.T) {
	bus := &fakeBus{}
	w := newWorker(t, bus, &fakeScorer{})
	ctx := context.Background()

	w.Handle(ctx, JobChannel, msg(t, "j1"))
	w.Handle(ctx, JobChannel, msg(t, "j2"))

	jobs, resumes := w.Pending()
	assert.Equal(t, 2, jobs)
	assert.Equal(t, 0, resumes)
	assert.Empty(t, bus.published)
}

func TestWorker_ScoresEveryPairAndClears(t *testing.T) {
	bus := &fakeBus{}
	scorer := &fakeScorer{}
	w := newWorker(t, bus, scorer)
	ctx := context.Background()

	w.Handle(ctx, JobChannel, msg(t, "j1"))
	w.Handle(ctx, JobChannel, msg(t, "j2"))
	w.Handle(ctx, ResumeChannel, msg(t, "r1"))

	require.Len(t, bus.published, 2)
	for _, ch := range bus.channels {
		assert.Equal(t, MatchChannel, ch)
	}
	for _, m := range bus.published {
		assert.Equal(t, "r1", m.ResumeID)
		assert.InDelta(t, 0.42, m.Score, 1e-9)
		assert.Equal(t, map[string]int{"skills": 1}, m.TaskHits)
	}
	assert.Equal(t, DefaultWeights(), scorer.weights)

	jobs, resumes := w.Pending()
	assert.Zero(t, jobs)
	assert.Zero(t, resumes)
}

func TestWorker_TaskSearchFailureStillPublishes(t *testing.T) {
	bus := &fakeBus{}
	w := newWorker(t, bus, &fakeScorer{taskErr: errors.New("storage error")})
	ctx := context.Background()

	w.Handle(ctx, ResumeChannel, msg(t, "r1"))
	w.Handle(ctx, JobChannel, msg(t, "j1"))

	require.Len(t, bus.published, 1)
	assert.Empty(t, bus.published[0].TaskHits)
}

func TestWorker_IgnoresBadMessages(t *testing.T) {
	bus := &fakeBus{}
	w := newWorker(t, bus, &fakeScorer{})
	ctx := context.Background()

	w.Handle(ctx, JobChannel, []byte("{not json"))
	w.Handle(ctx, "other_channel", msg(t, "x"))

	jobs, resumes := w.Pending()
	assert.Zero(t, jobs)
	assert.Zero(t, resumes)
}

func TestWorker_Run(t *testing.T) {
	bus := &fakeBus{incoming: []struct{ channel, msg string }{
		{JobChannel, `{"id":"j1","embeddings":{"skills":[1,0]}}`},
		{ResumeChannel, `{"id":"r1","embeddings":{"skills":[0,1]}}`},
	}}
	w := newWorker(t, bus, &fakeScorer{})

	require.NoError(t, w.Run(context.Background()))
	require.Len(t, bus.published, 1)
	assert.Equal(t, "j1", bus.published[0].JobID)
}

func TestConfig_Defaults(t *testing.T) {
	var c Config
	c.applyDefaults()
	assert.Equal(t, JobChannel, c.JobChannel)
	assert.Equal(t, ResumeChannel, c.ResumeChannel)
	assert.Equal(t, MatchChannel, c.MatchChannel)
	assert.InDelta(t, 0.7, c.Weights["skills"], 1e-9)
	assert.Positive(t, c.Workers)
}
