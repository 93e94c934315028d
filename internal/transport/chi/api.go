package chi

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeNotFound               ErrorCode = "not_found"
	CodeInvalidPointID         ErrorCode = "invalid_point_id"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeStorageError           ErrorCode = "storage_error"
	CodeEncodeFailed           ErrorCode = "encode_failed"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeNotImplemented         ErrorCode = "not_implemented"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
}

// EmbedRequest is the body of POST /api/embed.
type EmbedRequest struct {
	EntityType string         `json:"entity_type"`
	Sections   map[string]any `json:"sections"`
	Metadata   map[string]any `json:"metadata"`
}

// EmbedResponse returns the vector per encoded section.
type EmbedResponse struct {
	EntityType string               `json:"entity_type"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// BatchEmbedRequest is the body of POST /api/batch-embed.
type BatchEmbedRequest struct {
	EntityType string               `json:"entity_type"`
	Sections   map[string][]*string `json:"sections"`
}

// BatchEmbedResponse returns vectors per section; failed items are null.
type BatchEmbedResponse struct {
	EntityType string                 `json:"entity_type"`
	Embeddings map[string][][]float32 `json:"embeddings"`
}

// QueryEmbedRequest is the body of POST /api/query-embed.
type QueryEmbedRequest struct {
	QueryText string `json:"query_text"`
}

// QueryEmbedResponse carries the query vector.
type QueryEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// AddRequest is the body of POST /{entity}/add.
type AddRequest struct {
	JobID    string           `json:"job_id,omitempty"`
	ResumeID string           `json:"resume_id,omitempty"`
	IDs      []string         `json:"ids"`
	Vectors  [][]float32      `json:"vectors"`
	Payloads []map[string]any `json:"payloads"`
}

// UpdateRequest is the body of PUT /{entity}/update/{point_id}/{section}.
type UpdateRequest struct {
	Vector []float32 `json:"vector"`
}

// DeleteRequest is the body of POST /{entity}/delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// SearchRequest is the body of POST /{entity}/search.
type SearchRequest struct {
	QueryEmbedding  []float32      `json:"query_embedding"`
	Section         string         `json:"section"`
	TopK            int            `json:"top_k"`
	MetadataFilters map[string]any `json:"metadata_filters"`
}

// FuzzySearchRequest is the body of POST /{entity}/fuzzy_search.
type FuzzySearchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	TopK           *int      `json:"top_k"`
	Threshold      *float64  `json:"threshold"`
}

// FuzzySearchParams are the query-string overrides of FuzzySearchRequest.
type FuzzySearchParams struct {
	TopK      *int
	Threshold *float64
}

// SearchResultItem is one scored point.
type SearchResultItem struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// SearchResponse lists scored points, best first.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

// WeightedSearchRequest is the body of POST /resume/weighted_search.
type WeightedSearchRequest struct {
	JobEmbedding     map[string][]float32 `json:"job_embedding"`
	ResumeEmbeddings map[string][]float32 `json:"resume_embeddings"`
	Weights          map[string]float64   `json:"weights"`
}

// WeightedSearchResponse carries the aggregate score.
type WeightedSearchResponse struct {
	WeightedScore float64 `json:"weighted_score"`
}

// TaskBasedSearchRequest is the body of POST /resume/task_based_search.
type TaskBasedSearchRequest struct {
	JobTasks         map[string][]float32 `json:"job_tasks"`
	ResumeEmbeddings map[string][]float32 `json:"resume_embeddings"`
}

// TaskBasedSearchResponse maps each task to its experience-section hits.
type TaskBasedSearchResponse struct {
	TaskSearchResults map[string][]SearchResultItem `json:"task_search_results"`
}

// HealthResponse reports component status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
