package api

import (
	"context"
	"net/http"

	"github.com/okian/starter/internal/domain/types"
)

// InfoDependencies defines the interface for service description.
type InfoDependencies interface {
	Info(ctx context.Context) types.Envelope[types.ServiceInfo]
}

// InfoHandler handles service info requests.
type InfoHandler struct {
	deps InfoDependencies
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler(deps InfoDependencies) *InfoHandler {
	return &InfoHandler{deps: deps}
}

// HandleInfo handles GET /api/info requests. An envelope carrying an error
// is served with 503.
func (h *InfoHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	env := h.deps.Info(r.Context())
	status := http.StatusOK
	if env.Error != "" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, env)
}
