package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stackmesh/user-service/userctx"
)

// AuditLogger middleware logs all mutation requests with the acting user
func AuditLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only log mutation operations
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				principal, _ := userctx.PrincipalFrom(r.Context())
				log.Info().
					Str("subject", principal.Subject).
					Str("email", principal.Email).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("ip", ClientIP(r)).
					Str("user_agent", r.UserAgent()).
					Msg("mutation request")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client IP address, preferring proxy headers over
// the connection address. X-Forwarded-For may carry a chain of addresses,
// in which case the first entry is the original client.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
