package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
	assembleruc "github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
	gatewayuc "github.com/kailas-cloud/vecmatch/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vecmatch/internal/usecase/ingest"
	scoringuc "github.com/kailas-cloud/vecmatch/internal/usecase/scoring"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchDefaults are applied when a request leaves top_k or threshold unset.
type SearchDefaults struct {
	TopK           int
	FuzzyThreshold float64
}

// Server serves the embedding, vector store and scoring APIs.
type Server struct {
	ingest        *ingestuc.Service
	assembler     *assembleruc.Service
	gateways      map[entity.Type]*gatewayuc.Gateway
	scoring       *scoringuc.Service
	health        *healthuc.Service
	defaults      SearchDefaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	assembler *assembleruc.Service,
	gateways map[entity.Type]*gatewayuc.Gateway,
	scoring *scoringuc.Service,
	health *healthuc.Service,
	defaults SearchDefaults,
	logger *zap.Logger,
) *Server {
	if defaults.TopK <= 0 {
		defaults.TopK = scoringuc.DefaultTopK
	}
	s := &Server{
		ingest:    ingest,
		assembler: assembler,
		gateways:  gateways,
		scoring:   scoring,
		health:    health,
		defaults:  defaults,
		logger:    logger,
	}
	// Storage comes first: a dimension mismatch on write is a storage failure, not a client error.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrStorage, http.StatusInternalServerError, CodeStorageError),
		sentinelHandler(domain.ErrInvalidEntity, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidPointID, http.StatusBadRequest, CodeInvalidPointID),
		sentinelHandler(domain.ErrLengthMismatch, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrEncodeFailed, http.StatusBadGateway, CodeEncodeFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/api/embed", s.Embed)
	r.Post("/api/batch-embed", s.BatchEmbed)
	r.Post("/api/query-embed", s.QueryEmbed)

	r.Post("/collection/create", s.CreateCollection(entity.TypeResume))
	r.Post("/job/collection/create", s.CreateCollection(entity.TypeJob))

	r.Post("/resume/weighted_search", s.WeightedSearch)
	r.Post("/resume/task_based_search", s.TaskBasedSearch)

	r.Post("/{entity}/add", s.Add)
	r.Put("/{entity}/update/{point_id}/{section}", s.Update)
	r.Delete("/{entity}/delete/{point_id}", s.DeleteOne)
	r.Post("/{entity}/delete", s.DeleteMany)
	r.Post("/{entity}/search", s.Search)
	r.Post("/{entity}/fuzzy_search", s.FuzzySearch)

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Embed handles POST /api/embed.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	a, err := s.ingest.Embed(ctx, req.EntityType, req.Sections, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, EmbedResponse{
		EntityType: string(a.EntityType),
		Embeddings: a.Embeddings,
	})
}

// BatchEmbed handles POST /api/batch-embed.
func (s *Server) BatchEmbed(w http.ResponseWriter, r *http.Request) {
	var req BatchEmbedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	embeddings, err := s.assembler.AssembleBatch(ctx, req.EntityType, req.Sections)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, BatchEmbedResponse{
		EntityType: req.EntityType,
		Embeddings: embeddings,
	})
}

// QueryEmbed handles POST /api/query-embed.
func (s *Server) QueryEmbed(w http.ResponseWriter, r *http.Request) {
	var req QueryEmbedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	vec, err := s.assembler.Query(ctx, req.QueryText)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, QueryEmbedResponse{Embedding: vec})
}

// CreateCollection returns the handler that recreates the collection of one entity type.
func (s *Server) CreateCollection(et entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.gateway(et)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		if err := g.CreateCollection(r.Context()); err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: g.Name() + " created successfully"})
	}
}

// Add handles POST /{entity}/add.
func (s *Server) Add(w http.ResponseWriter, r *http.Request) {
	et, g, ok := s.entityGateway(w, r)
	if !ok {
		return
	}
	var req AddRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := g.Upsert(r.Context(), req.IDs, req.Vectors, req.Payloads); err != nil {
		s.handleDomainError(w, err)
		return
	}

	id := req.ResumeID
	if et == entity.TypeJob {
		id = req.JobID
	}
	if id == "" {
		id = entity.UnknownID
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%s %s added successfully", et, id),
	})
}

// Update handles PUT /{entity}/update/{point_id}/{section}.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	et, g, ok := s.entityGateway(w, r)
	if !ok {
		return
	}
	var pointID, section string
	if !bindPath(w, r, "point_id", &pointID) || !bindPath(w, r, "section", &section) {
		return
	}
	var req UpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := g.Upsert(r.Context(),
		[]string{pointID},
		[][]float32{req.Vector},
		[]map[string]any{{entity.SectionField: section}},
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%s %s section %s updated successfully", et, pointID, section),
	})
}

// DeleteOne handles DELETE /{entity}/delete/{point_id}.
func (s *Server) DeleteOne(w http.ResponseWriter, r *http.Request) {
	et, g, ok := s.entityGateway(w, r)
	if !ok {
		return
	}
	var pointID string
	if !bindPath(w, r, "point_id", &pointID) {
		return
	}

	if err := g.Delete(r.Context(), []string{pointID}); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%s %s deleted successfully", et, pointID),
	})
}

// DeleteMany handles POST /{entity}/delete.
func (s *Server) DeleteMany(w http.ResponseWriter, r *http.Request) {
	et, g, ok := s.entityGateway(w, r)
	if !ok {
		return
	}
	var req DeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := g.Delete(r.Context(), req.IDs); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%d %s points deleted successfully", len(req.IDs), et),
	})
}

// Search handles POST /{entity}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	et, _, ok := s.entityGateway(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaults.TopK
	}
	res, err := s.scoring.Direct(r.Context(), et.Collection(), req.QueryEmbedding, req.Section, topK, req.MetadataFilters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: resultsToAPI(res)})
}

// FuzzySearch handles POST /{entity}/fuzzy_search. Query-string top_k and threshold override the body.
func (s *Server) FuzzySearch(w http.ResponseWriter, r *http.Request) {
	et, _, ok := s.entityGateway(w, r)
	if !ok {
		return
	}

	var params FuzzySearchParams
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &params.TopK); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter top_k")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "threshold", r.URL.Query(), &params.Threshold); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter threshold")
		return
	}

	var req FuzzySearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	topK := s.defaults.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if params.TopK != nil {
		topK = *params.TopK
	}
	threshold := s.defaults.FuzzyThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	if topK <= 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be positive")
		return
	}

	res, err := s.scoring.Fuzzy(r.Context(), et.Collection(), req.QueryEmbedding, topK, threshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: resultsToAPI(res)})
}

// WeightedSearch handles POST /resume/weighted_search.
func (s *Server) WeightedSearch(w http.ResponseWriter, r *http.Request) {
	var req WeightedSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, WeightedSearchResponse{
		WeightedScore: s.scoring.Weighted(req.JobEmbedding, req.ResumeEmbeddings, req.Weights),
	})
}

// TaskBasedSearch handles POST /resume/task_based_search.
func (s *Server) TaskBasedSearch(w http.ResponseWriter, r *http.Request) {
	var req TaskBasedSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hits, err := s.scoring.TaskBased(r.Context(), req.JobTasks, req.ResumeEmbeddings)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make(map[string][]SearchResultItem, len(hits))
	for task, res := range hits {
		out[task] = resultsToAPI(res)
	}
	writeJSON(w, http.StatusOK, TaskBasedSearchResponse{TaskSearchResults: out})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// entityGateway binds the {entity} path segment and resolves its gateway.
// It writes the error response itself and reports whether the handler may proceed.
func (s *Server) entityGateway(w http.ResponseWriter, r *http.Request) (entity.Type, *gatewayuc.Gateway, bool) {
	var raw string
	if !bindPath(w, r, "entity", &raw) {
		return "", nil, false
	}
	et, err := entity.Parse(raw)
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err))
		return "", nil, false
	}
	g, err := s.gateway(et)
	if err != nil {
		s.handleDomainError(w, err)
		return "", nil, false
	}
	return et, g, true
}

func (s *Server) gateway(et entity.Type) (*gatewayuc.Gateway, error) {
	g, ok := s.gateways[et]
	if !ok {
		return nil, fmt.Errorf("no collection for %q: %w", et, domain.ErrNotFound)
	}
	return g, nil
}

func bindPath(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, gochi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func resultsToAPI(res []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(res))
	for i, r := range res {
		items[i] = SearchResultItem{ID: r.ID(), Score: r.Score(), Payload: r.Payload()}
	}
	return items
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	tokens, texts := usage.Totals()
	if texts > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrStorage,
		domain.ErrInvalidEntity,
		domain.ErrInvalidQuery,
		domain.ErrInvalidPointID,
		domain.ErrLengthMismatch,
		domain.ErrVectorDimMismatch,
		domain.ErrNotFound,
		domain.ErrEncodeFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
