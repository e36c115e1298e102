// Package metrics provides Prometheus metrics for the starter API service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the starter service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// API Metrics - What the two public endpoints are doing
	helloServed  prometheus.Counter
	healthChecks *prometheus.CounterVec
	buildInfo    *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	httpResponseBytes    *prometheus.CounterVec
	corsPreflights       *prometheus.CounterVec

	// Error Metrics - Detailed error tracking
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "starter",
		subsystem:        "api",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.enabled {
		m.initializeMetrics()
	}

	return m
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.helloServed = auto.NewCounter(m.counterOpts(
		"hello_served_total", "Total number of greetings served by /api/hello"))

	m.healthChecks = auto.NewCounterVec(m.counterOpts(
		"health_checks_total", "Total number of /api/health checks by reported status"),
		[]string{"status"})

	m.buildInfo = auto.NewGaugeVec(m.gaugeOpts(
		"build_info", "Build information; value is always 1"),
		[]string{"version", "go_version"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.httpRequestsInFlight = auto.NewGauge(m.gaugeOpts(
		"http_requests_in_flight", "Number of HTTP requests currently being served"))

	m.httpResponseBytes = auto.NewCounterVec(m.counterOpts(
		"http_response_bytes_total", "Total number of response body bytes written by endpoint"),
		[]string{"endpoint"})

	m.corsPreflights = auto.NewCounterVec(m.counterOpts(
		"cors_preflight_total", "Total number of CORS preflight requests by outcome"),
		[]string{"outcome"})

	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds", "Latency of requests that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))

	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))

	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordHello increments the greetings counter.
func (m *Manager) RecordHello() {
	if !m.enabled {
		return
	}
	m.helloServed.Inc()
}

// RecordHealthCheck counts a health check with the reported status.
func (m *Manager) RecordHealthCheck(status string) {
	if !m.enabled {
		return
	}
	m.healthChecks.WithLabelValues(status).Inc()
}

// SetBuildInfo publishes the running version.
func (m *Manager) SetBuildInfo(version string) {
	if !m.enabled {
		return
	}
	m.buildInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// AddHTTPRequestsInFlight moves the in-flight gauge by delta.
func (m *Manager) AddHTTPRequestsInFlight(delta float64) {
	if !m.enabled {
		return
	}
	m.httpRequestsInFlight.Add(delta)
}

// RecordHTTPResponseBytes adds written body bytes for an endpoint.
func (m *Manager) RecordHTTPResponseBytes(endpoint string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.httpResponseBytes.WithLabelValues(endpoint).Add(float64(n))
}

// RecordCORSPreflight counts a preflight request; outcome is "allowed" or "rejected".
func (m *Manager) RecordCORSPreflight(outcome string) {
	if !m.enabled {
		return
	}
	m.corsPreflights.WithLabelValues(outcome).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if !m.enabled {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers record on the global manager.

// RecordHello increments the greetings counter.
func RecordHello() { globalManager.RecordHello() }

// RecordHealthCheck counts a health check with the reported status.
func RecordHealthCheck(status string) { globalManager.RecordHealthCheck(status) }

// SetBuildInfo publishes the running version.
func SetBuildInfo(version string) { globalManager.SetBuildInfo(version) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

// AddHTTPRequestsInFlight moves the in-flight gauge by delta.
func AddHTTPRequestsInFlight(delta float64) { globalManager.AddHTTPRequestsInFlight(delta) }

// RecordHTTPResponseBytes adds written body bytes for an endpoint.
func RecordHTTPResponseBytes(endpoint string, n int) {
	globalManager.RecordHTTPResponseBytes(endpoint, n)
}

// RecordCORSPreflight counts a preflight request.
func RecordCORSPreflight(outcome string) { globalManager.RecordCORSPreflight(outcome) }

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.RecordErrorLatency(component, errorType, latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
