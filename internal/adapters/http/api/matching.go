package api

import (
	"net/http"
	"strconv"

	"github.com/okian/placement/internal/domain/types"
)

// MatchingHandler serves the synchronous matching routes.
type MatchingHandler struct {
	deps Matcher
}

// NewMatchingHandler creates a new matching handler.
func NewMatchingHandler(deps Matcher) *MatchingHandler {
	return &MatchingHandler{deps: deps}
}

// HandleSingle handles POST /v1/matching/single requests.
func (h *MatchingHandler) HandleSingle(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_single"
	var req types.SingleMatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.MatchSingle(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBatch handles POST /v1/matching/batch requests.
func (h *MatchingHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_batch"
	var req types.MatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.MatchBatch(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleOptimize handles POST /v1/matching/optimize requests. The
// diversity_boost query parameter overrides the body field.
func (h *MatchingHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "api.optimize"
	req, err := decodeOptimize(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Optimize(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeOptimize(w http.ResponseWriter, r *http.Request) (types.OptimizeRequest, error) {
	var req types.OptimizeRequest
	if err := decode(w, r, &req); err != nil {
		return req, err
	}
	if raw := r.URL.Query().Get("diversity_boost"); raw != "" {
		boost, err := strconv.ParseBool(raw)
		if err != nil {
			return req, err
		}
		req.DiversityBoost = &boost
	}
	return req, nil
}
