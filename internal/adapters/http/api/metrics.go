package api

import (
	"net/http"

	"github.com/okian/starter/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus exposition of our custom registry.
type MetricsHandler struct {
	next http.Handler
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		next: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// ServeHTTP handles GET /metrics requests.
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	h.next.ServeHTTP(w, r)
}
