// Package vectorstore forwards assembled points to a remote vector store service over HTTP.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/usecase/ingest"
)

// Client posts add requests to {baseURL}/{entity}/add.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a remote forwarder. A zero timeout leaves the client without a deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Forward sends the batch. Any transport failure or non-2xx reply is a storage error.
func (c *Client) Forward(ctx context.Context, b *ingest.Batch) error {
	body := map[string]any{
		b.EntityType.IDKey(): b.EntityID,
		"ids":                b.IDs,
		"vectors":            b.Vectors,
		"payloads":           b.Payloads,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal add request: %w", err)
	}

	url := c.baseURL + "/" + string(b.EntityType) + "/add"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post %s: %w", domain.ErrStorage, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: vector store returned %d: %s",
			domain.ErrStorage, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
