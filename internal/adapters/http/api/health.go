// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/starter/internal/domain/types"
)

// HealthDependencies defines the interface for health checks.
type HealthDependencies interface {
	Health(ctx context.Context) types.HealthResponse
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /api/health requests.
// Returns 200 with {"status":"ok"} when healthy, 503 with {"status":"error"} otherwise.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	resp := h.deps.Health(r.Context())
	status := http.StatusOK
	if !resp.Healthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, resp)
}
