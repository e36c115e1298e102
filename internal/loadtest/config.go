// Package loadtest drives concurrent traffic at a running server and
// reports latency and success statistics.
package loadtest

import (
	"errors"
	"fmt"
	"time"
)

// Supported targets.
const (
	TargetHello   = "hello"
	TargetHealth  = "health"
	TargetExample = "example"
)

// ErrInvalidConfig is returned for unusable run parameters.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds the parameters of one run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Total requests to send
	Workers  int           // Concurrent workers
	Target   string        // hello, health or example
	Timeout  time.Duration // Per-request timeout
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.Requests <= 0:
		return fmt.Errorf("%w: requests must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	switch c.Target {
	case TargetHello, TargetHealth, TargetExample:
		return nil
	default:
		return fmt.Errorf("%w: unknown target %q", ErrInvalidConfig, c.Target)
	}
}

// Stats summarises a finished run.
type Stats struct {
	Target            string        `json:"target"`
	Requests          int           `json:"requests"`
	Successful        int           `json:"successful"`
	Failed            int           `json:"failed"`
	Invalid           int           `json:"invalid"`
	Duration          time.Duration `json:"duration_ns"`
	SuccessRate       float64       `json:"success_rate"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	LatencyP50        time.Duration `json:"latency_p50_ns"`
	LatencyP95        time.Duration `json:"latency_p95_ns"`
	LatencyP99        time.Duration `json:"latency_p99_ns"`
	LatencyMax        time.Duration `json:"latency_max_ns"`
}
