// Package service provides the core application service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/starter/internal/domain/types"
	"github.com/okian/starter/pkg/logger"
	"github.com/okian/starter/pkg/metrics"
)

// Defaults used by New.
const (
	DefaultName     = "starter"
	DefaultGreeting = "Hello from Go!"
	DefaultVersion  = "dev"
)

// ExampleEndpoints lists the routes served by the example route group.
var ExampleEndpoints = []string{"/api/example", "/api/example/:id"}

// Endpoints lists every public API route.
var Endpoints = []string{"/api/hello", "/api/health", "/api/info", "/api/example", "/api/example/:id"}

// Service implements the API dependencies for the starter application.
type Service struct {
	mu sync.RWMutex

	// Configuration
	name     string
	greeting string
	version  string
	now      func() time.Time

	// State
	started   bool
	startedAt time.Time

	// Counters
	helloServed     atomic.Int64
	healthChecks    atomic.Int64
	exampleRequests atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGreeting sets the message returned by Hello.
func WithGreeting(greeting string) Option {
	return func(s *Service) {
		if strings.TrimSpace(greeting) != "" {
			s.greeting = greeting
		}
	}
}

// WithVersion sets the version reported by Info.
func WithVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.version = version
		}
	}
}

// WithName sets the service name reported by Info.
func WithName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.name = name
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		name:     DefaultName,
		greeting: DefaultGreeting,
		version:  DefaultVersion,
		now:      time.Now,
		logger:   nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start marks the service ready. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.startedAt = s.now()
	metrics.SetBuildInfo(s.version)

	s.logger.Info(ctx, "starter service started",
		logger.String("name", s.name),
		logger.String("version", s.version),
		logger.String("greeting", s.greeting),
	)
	return nil
}

// Stop marks the service as not ready; Health reports error afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "starter service stopped",
		logger.Int64("helloServed", s.helloServed.Load()),
		logger.Int64("healthChecks", s.healthChecks.Load()),
	)
}

// Started reports whether Start has been called without a later Stop.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Hello returns the greeting stamped with the current time.
func (s *Service) Hello(_ context.Context) types.HelloResponse {
	s.helloServed.Add(1)
	metrics.RecordHello()
	return types.HelloResponse{
		Message:   s.greeting,
		Timestamp: types.Timestamp(s.now()),
	}
}

// Health reports ok while the service is started.
func (s *Service) Health(_ context.Context) types.HealthResponse {
	s.healthChecks.Add(1)
	status := types.HealthError
	if s.Started() {
		status = types.HealthOK
	}
	metrics.RecordHealthCheck(string(status))
	return types.HealthResponse{Status: status}
}

// Info describes the running service inside the shared envelope. Before
// Start the envelope carries ErrNotStarted instead of data.
func (s *Service) Info(_ context.Context) types.Envelope[types.ServiceInfo] {
	s.mu.RLock()
	started, startedAt := s.started, s.startedAt
	s.mu.RUnlock()

	now := s.now()
	if !started {
		return types.Fail[types.ServiceInfo](ErrNotStarted, now)
	}
	return types.Wrap(types.ServiceInfo{
		Name:          s.name,
		Version:       s.version,
		StartedAt:     types.Timestamp(startedAt),
		UptimeSeconds: now.Sub(startedAt).Seconds(),
		Endpoints:     append([]string(nil), Endpoints...),
	}, now)
}

// ExampleIndex lists the example routes.
func (s *Service) ExampleIndex(_ context.Context) types.ExampleIndex {
	s.exampleRequests.Add(1)
	return types.ExampleIndex{
		Message:   "Example route",
		Endpoints: append([]string(nil), ExampleEndpoints...),
	}
}

// Example echoes id back. Blank ids are rejected with ErrInvalidID.
func (s *Service) Example(_ context.Context, id string) (types.ExampleItem, error) {
	if strings.TrimSpace(id) == "" {
		return types.ExampleItem{}, fmt.Errorf("%w: must not be empty", ErrInvalidID)
	}
	s.exampleRequests.Add(1)
	return types.ExampleItem{
		ID:      id,
		Message: "Fetched example with id: " + id,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"name":            s.name,
		"version":         s.version,
		"greeting":        s.greeting,
		"started":         s.started,
		"helloServed":     s.helloServed.Load(),
		"healthChecks":    s.healthChecks.Load(),
		"exampleRequests": s.exampleRequests.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = s.now().Sub(s.startedAt).Seconds()
	}

	return stats
}
