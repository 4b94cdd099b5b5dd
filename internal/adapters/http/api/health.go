package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/placement/pkg/metrics"
)

// ReadinessProbe reports whether the service accepts work.
type ReadinessProbe interface {
	Ready() bool
}

// HealthHandler handles health and readiness requests.
type HealthHandler struct {
	probe ReadinessProbe
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// HandleHealth handles GET /healthz requests with the Prometheus metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

type readyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HandleReady handles GET /readyz requests.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.probe == nil || !h.probe.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "starting", Timestamp: now})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: "ready", Timestamp: now})
}
