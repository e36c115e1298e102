// Package types contains the request/response shapes shared by the API
// handlers, the application service and the API client.
package types

import "time"

// TimestampLayout is RFC 3339 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way every payload in the API does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// HelloResponse is returned by GET /api/hello.
type HelloResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthStatus is the reported liveness of the API.
type HealthStatus string

// Health statuses.
const (
	HealthOK    HealthStatus = "ok"
	HealthError HealthStatus = "error"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status HealthStatus `json:"status"`
}

// Healthy reports whether the status is ok.
func (h HealthResponse) Healthy() bool { return h.Status == HealthOK }

// Envelope wraps a payload with an optional error and a timestamp.
type Envelope[T any] struct {
	Data      *T     `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Wrap builds a successful envelope stamped at now.
func Wrap[T any](data T, now time.Time) Envelope[T] {
	return Envelope[T]{Data: &data, Timestamp: Timestamp(now)}
}

// Fail builds an error envelope stamped at now.
func Fail[T any](err error, now time.Time) Envelope[T] {
	e := Envelope[T]{Timestamp: Timestamp(now)}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// ExampleIndex is returned by GET /api/example.
type ExampleIndex struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// ExampleItem is returned by GET /api/example/{id}.
type ExampleItem struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ServiceInfo is returned, wrapped in an Envelope, by GET /api/info.
type ServiceInfo struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	StartedAt     string   `json:"started_at,omitempty"`
	UptimeSeconds float64  `json:"uptime_seconds"`
	Endpoints     []string `json:"endpoints"`
}
