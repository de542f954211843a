package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestLogger attaches the service logger to every request context and
// emits one structured access-log line per request. Handlers reach the
// request-scoped logger through hlog.FromRequest.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", size).
				Dur("duration", duration).
				Str("ip", ClientIP(r)).
				Str("user_agent", r.UserAgent()).
				Msg("request")
		})
		requestID := hlog.RequestIDHandler("request_id", "Request-Id")

		return hlog.NewHandler(log)(requestID(access(next)))
	}
}
