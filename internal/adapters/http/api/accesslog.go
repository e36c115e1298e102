package api

import (
	"net/http"
	"time"

	"github.com/okian/starter/pkg/logger"
)

// AccessLog writes one structured line per request. 4xx responses log at
// warn, 5xx at error.
func AccessLog(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", wrapped.statusCode),
				logger.Int("bytes", wrapped.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote", r.RemoteAddr),
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				fields = append(fields, logger.String("request_id", id))
			}

			ctx := r.Context()
			switch {
			case wrapped.statusCode >= statusInternalError:
				l.Error(ctx, "http_request", fields...)
			case wrapped.statusCode >= statusBadRequest:
				l.Warn(ctx, "http_request", fields...)
			default:
				l.Info(ctx, "http_request", fields...)
			}
		})
	}
}
