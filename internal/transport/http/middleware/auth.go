package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-autopost/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// SessionCookie carries the admin session token for the server-rendered
// dashboard pages, where a Bearer header is not available.
const SessionCookie = "admin_session"

// Auth returns middleware that validates the admin session token, taken
// from the Authorization header or the session cookie, and injects the
// claims into the request context.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					tokenStr = c.Value
				}
			}
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session token")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// ClaimsFromContext extracts session claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
