package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/starter/pkg/metrics"
)

// CORSConfig controls the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*" for any, or
	// "https://*.example.com" style subdomain wildcards.
	AllowedOrigins []string
	// AllowedMethods is advertised on preflight responses.
	AllowedMethods []string
	// AllowedHeaders is advertised on preflight responses. When empty the
	// headers requested by the browser are echoed back.
	AllowedHeaders []string
	// MaxAge lets browsers cache preflight results; zero omits the header.
	MaxAge time.Duration
}

type cors struct {
	any       bool
	exact     map[string]struct{}
	wildcards [][2]string // prefix, suffix
	methods   string
	headers   string
	maxAge    string
}

func newCORS(cfg CORSConfig) *cors {
	c := &cors{exact: make(map[string]struct{})}
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "":
		case o == "*":
			c.any = true
		case strings.Contains(o, "*"):
			i := strings.Index(o, "*")
			c.wildcards = append(c.wildcards, [2]string{o[:i], o[i+1:]})
		default:
			c.exact[o] = struct{}{}
		}
	}
	c.methods = strings.Join(cfg.AllowedMethods, ", ")
	c.headers = strings.Join(cfg.AllowedHeaders, ", ")
	if cfg.MaxAge > 0 {
		c.maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}
	return c
}

func (c *cors) allowed(origin string) bool {
	if c.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := c.exact[origin]; ok {
		return true
	}
	for _, w := range c.wildcards {
		if len(origin) > len(w[0])+len(w[1]) && strings.HasPrefix(origin, w[0]) && strings.HasSuffix(origin, w[1]) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses to allowed
// origins. Requests without an Origin header pass through untouched;
// disallowed origins never receive CORS headers and their preflights get 403.
func CORS(cfg CORSConfig) Middleware {
	c := newCORS(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			if !c.any {
				h.Add("Vary", "Origin")
			}
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !c.allowed(origin) {
				if preflight {
					metrics.RecordCORSPreflight("rejected")
					writeError(w, http.StatusForbidden, "forbidden", ErrOriginNotAllowed)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if c.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordCORSPreflight("allowed")
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if c.methods != "" {
				h.Set("Access-Control-Allow-Methods", c.methods)
			}
			if c.headers != "" {
				h.Set("Access-Control-Allow-Headers", c.headers)
			} else if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			if c.maxAge != "" {
				h.Set("Access-Control-Max-Age", c.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
