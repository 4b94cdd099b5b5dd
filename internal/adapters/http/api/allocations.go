package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/placement/internal/domain/types"
)

// AllocationHandler serves the asynchronous allocation job routes.
type AllocationHandler struct {
	deps Jobs
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(deps Jobs) *AllocationHandler {
	return &AllocationHandler{deps: deps}
}

type submitResponse struct {
	JobID  string          `json:"job_id"`
	Status types.JobStatus `json:"status"`
}

// HandleSubmit handles POST /v1/allocations requests.
func (h *AllocationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_allocation"
	req, err := decodeOptimize(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	job, err := h.deps.SubmitAllocation(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Location", "/v1/allocations/"+job.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: job.ID, Status: job.Status})
}

// HandleGet handles GET /v1/allocations/{id} requests.
func (h *AllocationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_allocation"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("missing job id")))
		return
	}
	job, err := h.deps.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
