// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/domain/matching"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// Matcher runs synchronous matching operations.
type Matcher interface {
	MatchSingle(ctx context.Context, req types.SingleMatchRequest) (types.MatchResult, error)
	MatchBatch(ctx context.Context, req types.MatchRequest) (types.BatchMatchResponse, error)
	Optimize(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error)
	Analytics(ctx context.Context, req types.AnalyticsRequest) types.AnalyticsReport
}

// Jobs submits and reads asynchronous allocation jobs.
type Jobs interface {
	SubmitAllocation(ctx context.Context, req types.OptimizeRequest) (types.Job, error)
	GetJob(ctx context.Context, id string) (types.Job, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Matcher
	Jobs
	StatsProvider
	ReadinessProbe
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	matchingHandler   *MatchingHandler
	allocationHandler *AllocationHandler
	analyticsHandler  *AnalyticsHandler

	apiKey  string
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(deps),
		statsHandler:      NewStatsHandler(deps),
		matchingHandler:   NewMatchingHandler(deps),
		allocationHandler: NewAllocationHandler(deps),
		analyticsHandler:  NewAnalyticsHandler(deps),
		logger:            logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	s.v1(mux, "POST /v1/matching/single", "matching_single", s.matchingHandler.HandleSingle)
	s.v1(mux, "POST /v1/matching/batch", "matching_batch", s.matchingHandler.HandleBatch)
	s.v1(mux, "POST /v1/matching/optimize", "matching_optimize", s.matchingHandler.HandleOptimize)
	s.v1(mux, "POST /v1/allocations", "allocations_submit", s.allocationHandler.HandleSubmit)
	s.v1(mux, "GET /v1/allocations/{id}", "allocations_get", s.allocationHandler.HandleGet)
	s.v1(mux, "POST /v1/analytics", "analytics", s.analyticsHandler.HandleGenerate)

	s.logger.Info(ctx, "api routes registered",
		logger.Bool("auth", s.apiKey != ""),
		logger.Bool("rate_limit", s.limiter != nil))
}

// v1 registers a business route behind metrics, auth and rate limiting.
func (s *Server) v1(mux *http.ServeMux, pattern, endpoint string, h http.HandlerFunc) {
	h = RateLimitMiddleware(h, s.limiter)
	h = APIKeyMiddleware(h, s.apiKey)
	mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeServiceError maps upstream errors onto status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, matching.ErrDuplicateCandidate),
		errors.Is(err, matching.ErrDuplicateOpportunity):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
