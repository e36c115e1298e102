// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/starter/internal/domain/types"
)

// HelloDependencies defines the interface for greeting operations.
type HelloDependencies interface {
	Hello(ctx context.Context) types.HelloResponse
}

// HelloHandler handles greeting requests.
type HelloHandler struct {
	deps HelloDependencies
}

// NewHelloHandler creates a new hello handler.
func NewHelloHandler(deps HelloDependencies) *HelloHandler {
	return &HelloHandler{deps: deps}
}

// HandleHello handles GET /api/hello requests.
func (h *HelloHandler) HandleHello(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Hello(r.Context()))
}
