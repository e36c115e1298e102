// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional file and the environment.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// Greeting is the message returned by GET /api/hello.
	Greeting string `koanf:"greeting"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// CORSAllowMethods and CORSAllowHeaders are advertised on preflight.
	CORSAllowMethods []string `koanf:"cors_allow_methods"`
	CORSAllowHeaders []string `koanf:"cors_allow_headers"`

	// CORSMaxAge is how long browsers may cache a preflight result.
	CORSMaxAge time.Duration `koanf:"cors_max_age"`

	// ServeSite mounts the embedded client at "/".
	ServeSite bool `koanf:"serve_site"`

	// ServeDocs mounts the OpenAPI document and ReDoc page.
	ServeDocs bool `koanf:"serve_docs"`

	// HTTP server timeouts.
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MetricsInterval is how often runtime gauges are refreshed.
	MetricsInterval time.Duration `koanf:"metrics_interval"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":3001",
		Greeting:         "Hello from Go!",
		CORSOrigins:      []string{"*"},
		CORSAllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		CORSAllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSMaxAge:       10 * time.Minute,
		ServeSite:        true,
		ServeDocs:        true,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      60 * time.Second,
		ShutdownTimeout:  30 * time.Second,
		MetricsInterval:  10 * time.Second,
	}
}

// minDuration rejects unit-less numbers, which decode as nanoseconds.
const minDuration = time.Millisecond

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.Greeting) == "":
		return fmt.Errorf("%w: greeting must not be empty", ErrInvalidConfig)
	case len(c.CORSOrigins) == 0:
		return fmt.Errorf("%w: cors_origins must not be empty", ErrInvalidConfig)
	case c.CORSMaxAge < 0:
		return fmt.Errorf("%w: cors_max_age must not be negative", ErrInvalidConfig)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
		{"metrics_interval", c.MetricsInterval},
	}
	for _, t := range timeouts {
		if t.d < minDuration {
			return fmt.Errorf("%w: %s must be at least %s (use a unit, e.g. \"3s\")", ErrInvalidConfig, t.name, minDuration)
		}
	}
	return nil
}

// normalize trims list entries and drops empty ones.
func (c *Config) normalize() {
	c.CORSOrigins = cleanList(c.CORSOrigins)
	c.CORSAllowMethods = cleanList(c.CORSAllowMethods)
	c.CORSAllowHeaders = cleanList(c.CORSAllowHeaders)
	for i, m := range c.CORSAllowMethods {
		c.CORSAllowMethods[i] = strings.ToUpper(m)
	}
}

func cleanList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
