package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	api "github.com/kailas-cloud/vecmatch/internal/transport/chi"
)

// apiError is a non-2xx reply decoded from the error envelope.
type apiError struct {
	Status  int
	Code    api.ErrorCode
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// apiClient talks to a running vecmatch server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	return decodeBody(resp, path, out)
}

func decodeError(resp *http.Response) error {
	var e api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &e) != nil || e.Code == "" {
		e = api.ErrorResponse{Code: api.CodeInternalError, Message: strings.TrimSpace(string(raw))}
	}
	return &apiError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
}

func decodeBody(resp *http.Response, path string, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *apiClient) createCollection(ctx context.Context, entity string) error {
	path := "/collection/create"
	if entity == "job" {
		path = "/job/collection/create"
	}
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *apiClient) embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error) {
	var out api.EmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/embed", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) batchEmbed(ctx context.Context, req *api.BatchEmbedRequest) (*api.BatchEmbedResponse, error) {
	var out api.BatchEmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/batch-embed", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) queryEmbed(ctx context.Context, text string) ([]float32, error) {
	var out api.QueryEmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/query-embed", &api.QueryEmbedRequest{QueryText: text}, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

func (c *apiClient) search(ctx context.Context, entity string, req *api.SearchRequest) ([]api.SearchResultItem, error) {
	var out api.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/"+entity+"/search", req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *apiClient) fuzzySearch(
	ctx context.Context, entity string, req *api.FuzzySearchRequest,
) ([]api.SearchResultItem, error) {
	var out api.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/"+entity+"/fuzzy_search", req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *apiClient) weightedSearch(ctx context.Context, req *api.WeightedSearchRequest) (float64, error) {
	var out api.WeightedSearchResponse
	if err := c.do(ctx, http.MethodPost, "/resume/weighted_search", req, &out); err != nil {
		return 0, err
	}
	return out.WeightedScore, nil
}

// health returns the report for both 200 and 503 replies.
func (c *apiClient) health(ctx context.Context) (*api.HealthResponse, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}
	var out api.HealthResponse
	if err := decodeBody(resp, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
