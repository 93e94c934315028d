package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/panjf2000/ants/v2"

	api "github.com/kailas-cloud/vecmatch/internal/transport/chi"
)

// loadDocuments reads one EmbedRequest object or an array of them from a JSON file.
// entityType fills documents that do not name one.
func loadDocuments(path, entityType string) ([]api.EmbedRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw = bytes.TrimSpace(raw)

	var docs []api.EmbedRequest
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		var doc api.EmbedRequest
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = []api.EmbedRequest{doc}
	}

	for i := range docs {
		if docs[i].EntityType == "" {
			docs[i].EntityType = entityType
		}
		if docs[i].EntityType == "" {
			return nil, fmt.Errorf("%s: document %d has no entity_type (use --entity)", path, i)
		}
		if len(docs[i].Sections) == 0 {
			return nil, fmt.Errorf("%s: document %d has no sections", path, i)
		}
	}
	return docs, nil
}

// ingestOutcome is the result of embedding one document.
type ingestOutcome struct {
	Source   string `json:"source"`
	Index    int    `json:"index"`
	Sections int    `json:"sections"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

func (o *ingestOutcome) fail(err error) {
	o.Err = err
	o.Error = err.Error()
}

// ingestConcurrently posts every document through a bounded ants pool.
// Outcomes come back in submission order.
func ingestConcurrently(
	ctx context.Context, c *apiClient, sources []string, docs [][]api.EmbedRequest, workers int,
) ([]ingestOutcome, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create ingest pool: %w", err)
	}
	defer pool.Release()

	var total int
	for _, d := range docs {
		total += len(d)
	}
	outcomes := make([]ingestOutcome, 0, total)
	for fi, fileDocs := range docs {
		for di := range fileDocs {
			outcomes = append(outcomes, ingestOutcome{Source: sources[fi], Index: di})
		}
	}

	var wg sync.WaitGroup
	pos := 0
	for fi := range docs {
		for di := range docs[fi] {
			out := &outcomes[pos]
			doc := &docs[fi][di]
			pos++

			wg.Add(1)
			task := func() {
				defer wg.Done()
				res, err := c.embed(ctx, doc)
				if err != nil {
					out.fail(err)
					return
				}
				out.Sections = len(res.Embeddings)
			}
			if err := pool.Submit(task); err != nil {
				wg.Done()
				out.fail(fmt.Errorf("submit: %w", err))
			}
		}
	}
	wg.Wait()
	return outcomes, nil
}
