package api

import (
	"net/http"

	"github.com/okian/placement/internal/domain/types"
)

// AnalyticsHandler serves match result analytics.
type AnalyticsHandler struct {
	deps Matcher
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps Matcher) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleGenerate handles POST /v1/analytics requests.
func (h *AnalyticsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	var req types.AnalyticsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Analytics(r.Context(), req))
}
