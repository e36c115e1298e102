// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/starter/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HelloDependencies
	HealthDependencies
	InfoDependencies
	ExampleDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	helloHandler   *HelloHandler
	healthHandler  *HealthHandler
	infoHandler    *InfoHandler
	exampleHandler *ExampleHandler
	statsHandler   *StatsHandler
	metricsHandler *MetricsHandler
	logger         logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		helloHandler:   NewHelloHandler(deps),
		healthHandler:  NewHealthHandler(deps),
		infoHandler:    NewInfoHandler(deps),
		exampleHandler: NewExampleHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		metricsHandler: NewMetricsHandler(),
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/api/hello", MetricsMiddleware(s.helloHandler.HandleHello, "hello"))
	mux.HandleFunc("/api/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/api/info", MetricsMiddleware(s.infoHandler.HandleInfo, "info"))
	mux.HandleFunc("/api/example", MetricsMiddleware(s.exampleHandler.HandleIndex, "example"))
	mux.HandleFunc("/api/example/", MetricsMiddleware(s.exampleHandler.HandleGetExample, "example_item"))
	mux.HandleFunc("/api/", MetricsMiddleware(handleAPINotFound, "not_found"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", s.metricsHandler)

	s.logger.Debug(ctx, "api routes registered")
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

// allowRead accepts GET and HEAD; anything else gets 405 with an Allow header.
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodHead}, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed",
		fmt.Errorf("%w: %s", ErrMethodNotAllowed, r.Method))
	return false
}

// handleAPINotFound keeps unknown /api/* paths out of the client fallback.
func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %s", ErrNotFound, r.URL.Path))
}
