// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/starter/internal/app"
	"github.com/okian/starter/internal/domain/types"
)

const examplePrefix = "/api/example/"

// ExampleDependencies defines the interface for the example route group.
type ExampleDependencies interface {
	ExampleIndex(ctx context.Context) types.ExampleIndex
	Example(ctx context.Context, id string) (types.ExampleItem, error)
}

// ExampleHandler handles the example route group.
type ExampleHandler struct {
	deps ExampleDependencies
}

// NewExampleHandler creates a new example handler.
func NewExampleHandler(deps ExampleDependencies) *ExampleHandler {
	return &ExampleHandler{deps: deps}
}

// HandleIndex handles GET /api/example requests.
func (h *ExampleHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ExampleIndex(r.Context()))
}

// HandleGetExample handles GET /api/example/{id} requests.
func (h *ExampleHandler) HandleGetExample(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, examplePrefix)
	if id == "" {
		// "/api/example/" is the index with a trailing slash.
		writeJSON(w, http.StatusOK, h.deps.ExampleIndex(r.Context()))
		return
	}
	if strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: nested path %q", ErrBadRequest, id))
		return
	}
	item, err := h.deps.Example(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
