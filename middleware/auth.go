package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stackmesh/user-service/token"
	"github.com/stackmesh/user-service/userctx"
)

const bearerPrefix = "Bearer "

// RequireAuth guards protected routes with a bearer service token. The header
// must have the exact form "Bearer <token>". Rejections carry one of two
// bodies only: a missing/malformed header and a failed verification are never
// distinguished further, so the response leaks nothing about which check
// failed.
func RequireAuth(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				writeUnauthorized(w, "Missing Authorization: Bearer token")
				return
			}

			claims, err := codec.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				writeUnauthorized(w, "Invalid or expired JWT token")
				return
			}

			principal := userctx.Principal{
				Subject:  claims.Subject(),
				Email:    claims.Email(),
				Provider: claims.Provider(),
			}
			next.ServeHTTP(w, r.WithContext(userctx.WithPrincipal(r.Context(), principal)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
