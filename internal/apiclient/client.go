// Package apiclient is a typed client for the starter HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/starter/internal/domain/types"
)

// Client defaults.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "starter-apiclient/1.0"

	maxBodyBytes = 1 << 20
)

// Client performs requests against a single base URL.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request; ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:   u,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Hello fetches GET /api/hello.
func (c *Client) Hello(ctx context.Context) (types.HelloResponse, error) {
	var out types.HelloResponse
	err := c.get(ctx, "/api/hello", &out)
	return out, err
}

// Health fetches GET /api/health. An unhealthy service answers 503 with a
// valid body; that is returned as a response, not an error.
func (c *Client) Health(ctx context.Context) (types.HealthResponse, error) {
	var out types.HealthResponse
	err := c.get(ctx, "/api/health", &out, http.StatusServiceUnavailable)
	return out, err
}

// Info fetches GET /api/info.
func (c *Client) Info(ctx context.Context) (types.Envelope[types.ServiceInfo], error) {
	var out types.Envelope[types.ServiceInfo]
	err := c.get(ctx, "/api/info", &out, http.StatusServiceUnavailable)
	return out, err
}

// Examples fetches GET /api/example.
func (c *Client) Examples(ctx context.Context) (types.ExampleIndex, error) {
	var out types.ExampleIndex
	err := c.get(ctx, "/api/example", &out)
	return out, err
}

// Example fetches GET /api/example/{id}.
func (c *Client) Example(ctx context.Context, id string) (types.ExampleItem, error) {
	var out types.ExampleItem
	err := c.get(ctx, "/api/example/"+url.PathEscape(id), &out)
	return out, err
}

// get decodes a JSON body into out for 2xx responses and for any status
// listed in accept.
func (c *Client) get(ctx context.Context, path string, out any, accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}

	if !successful(resp.StatusCode, accept) {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrDecode, path, err)
	}
	return nil
}

func successful(status int, accept []int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}
