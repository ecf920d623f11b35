package common

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type contextKey string

const claimsKey contextKey = "claims"

// Routes reachable without a token.
var publicPaths = map[string]bool{
	"/api/register": true,
	"/api/login":    true,
	// Authenticated by X-Webhook-Secret instead of a bearer token.
	"/api/notifications/trigger": true,
}

// AuthMiddleware enforces a Bearer token on every route except the public
// ones and injects the verified claims into the request context.
func AuthMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				WriteError(w, ErrUnauthorized)
				return
			}

			// Authorization: Bearer <token>
			parts := strings.Fields(authz)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, ErrUnauthorized)
				return
			}

			claims, err := ValidToken(parts[1])
			if err != nil {
				WriteError(w, ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the authenticated identity injected by
// AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// LoggingMiddleware logs each request with its duration.
func LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log.Printf("Request: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			log.Printf("Completed %s %s in %v", r.Method, r.URL.Path, time.Since(start))
		})
	}
}
