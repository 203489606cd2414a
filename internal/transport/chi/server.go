// Package chi is the HTTP transport: search, recipe, reload, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/logger"
	healthuc "github.com/kailas-cloud/flyerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flyerdex/internal/usecase/search"
)

// MaxRecipeIngredients bounds the fan-out of one recipe request.
const MaxRecipeIngredients = 50

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the flyerdex HTTP API.
type Server struct {
	search          *searchuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search:          search,
		health:          health,
		logger:          logger,
		defaultPageSize: request.DefaultLimit,
		maxPageSize:     request.MaxLimit,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrCatalogNotLoaded, http.StatusServiceUnavailable, ErrorCodeCatalogNotLoaded),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, ErrorCodeVectorDimMismatch),
	}
	return s
}

// WithPagination sets the default and maximum page size.
func (s *Server) WithPagination(defaultPageSize, maxPageSize int) *Server {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.Search)
	r.Post("/search/recipe", s.SearchRecipe)
	r.Post("/admin/reload", s.Reload)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(
		body.Query, mode.Mode(body.Mode), body.Markets,
		body.MinPrice, body.MaxPrice, body.Offset, s.pageSize(body.Limit),
	)
	if err == nil {
		req, err = withRequestFilters(&req, body.Categories, body.ActiveOn)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponseFromResult(&resp))
}

// SearchRecipe handles POST /search/recipe.
func (s *Server) SearchRecipe(w http.ResponseWriter, r *http.Request) {
	var body RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(body.Ingredients) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "ingredients must not be empty")
		return
	}
	if len(body.Ingredients) > MaxRecipeIngredients {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "too many ingredients")
		return
	}

	base, err := request.New(
		"", mode.Mode(body.Mode), body.Markets,
		body.MinPrice, body.MaxPrice, 0, s.pageSize(body.Limit),
	)
	if err == nil {
		base, err = withRequestFilters(&base, body.Categories, body.ActiveOn)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	for _, ing := range body.Ingredients {
		if len(ing) > request.MaxQueryLength {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "ingredient too long")
			return
		}
	}

	results, err := s.search.SearchRecipe(r.Context(), body.Ingredients, base)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RecipeResponseFromResults(results))
}

// withRequestFilters adds the optional category and validity-date filters.
func withRequestFilters(req *request.Request, categories []string, activeOn string) (request.Request, error) {
	out := req.WithCategories(categories...)
	if activeOn == "" {
		return out, nil
	}
	day, err := time.Parse(time.DateOnly, activeOn)
	if err != nil {
		return request.Request{}, fmt.Errorf("active_on must be YYYY-MM-DD: %w", err)
	}
	return out.WithActiveOn(day), nil
}

// Reload handles POST /admin/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.search.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ReloadResponse{
		Items:    snap.Index.Len(),
		Vectors:  len(snap.Vectors),
		LoadedAt: snap.LoadedAt,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pageSize(limit int) int {
	if limit <= 0 {
		return s.defaultPageSize
	}
	return min(limit, s.maxPageSize)
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
		domain.ErrInvalidRequest,
		domain.ErrCatalogNotLoaded,
		domain.ErrVectorDimMismatch,
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

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
