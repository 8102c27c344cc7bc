package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/metrics"
	"github.com/kailas-cloud/vetsearch/internal/transport/response"
	healthuc "github.com/kailas-cloud/vetsearch/internal/usecase/health"
	historyuc "github.com/kailas-cloud/vetsearch/internal/usecase/history"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to the Veterinary Learning Content Search API"

const maxBodyBytes = 1 << 20

// Config holds request defaults and middleware settings.
type Config struct {
	DefaultTopK int
	MaxTopK     int
	APIKeys     []string
	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// SearchRequest is the body of every search endpoint.
type SearchRequest struct {
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters,omitempty"`
	TopK    *int              `json:"top_k,omitempty"`
}

// Server is the HTTP API.
type Server struct {
	cfg           Config
	search        Searcher
	history       HistoryReader
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. history may be nil when recording is off.
func NewServer(cfg Config, search Searcher, history HistoryReader, health HealthChecker, logger *zap.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = query.DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = query.DefaultMaxTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:           cfg,
		search:        search,
		history:       history,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))
	r.Use(RateLimitMiddleware(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/search", func(r chi.Router) {
		r.Post("/all", s.SearchAll)
		r.Post("/{method}", s.SearchMethod)
		r.Get("/history", s.ListHistory)
		r.Get("/history/{id}", s.GetHistory)
	})
	return r
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// SearchMethod handles POST /search/{method}.
func (s *Server) SearchMethod(w http.ResponseWriter, r *http.Request) {
	b, err := backend.FromMethod(chi.URLParam(r, "method"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	q, err := s.decodeQuery(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rs, err := s.search.Execute(ctx, &q, b)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, response.NewSingle(&q, &rs))
}

// SearchAll handles POST /search/all.
func (s *Server) SearchAll(w http.ResponseWriter, r *http.Request) {
	q, err := s.decodeQuery(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	outcome, err := s.search.ExecuteAll(ctx, &q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, response.NewCombined(outcome))
}

// ListHistory handles GET /search/history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.handleDomainError(w, r, domain.ErrHistoryDisabled)
		return
	}

	limit := historyuc.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.handleDomainError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest))
			return
		}
		limit = n
	}

	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewHistory(recs))
}

// GetHistory handles GET /search/history/{id}.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.handleDomainError(w, r, domain.ErrHistoryDisabled)
		return
	}

	rec, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewRecord(&rec))
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
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

// decodeQuery parses and validates a search body. All failures wrap ErrInvalidRequest.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (query.Query, error) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return query.Query{}, fmt.Errorf("%w: request body is required", domain.ErrInvalidRequest)
		}
		return query.Query{}, fmt.Errorf("%w: invalid request body: %s", domain.ErrInvalidRequest, err.Error())
	}

	f, err := filter.Parse(req.Filters)
	if err != nil {
		return query.Query{}, fmt.Errorf("parse filters: %w", err)
	}

	topK := s.cfg.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	q, err := query.New(req.Query, f, topK, s.cfg.MaxTopK)
	if err != nil {
		return query.Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, used := usage.Snapshot(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}
