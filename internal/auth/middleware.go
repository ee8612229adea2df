// Package auth provides API key authentication middleware.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/trenddesk/trenddesk/internal/storage"
)

type contextKey string

const apiKeyContextKey contextKey = "apiKey"

// GetAPIKeyFromContext retrieves the validated API key from the request
// context, or nil when the request was not authenticated.
func GetAPIKeyFromContext(ctx context.Context) *storage.APIKey {
	key, _ := ctx.Value(apiKeyContextKey).(*storage.APIKey)
	return key
}

// extractKey pulls the API key from the X-API-Key header, falling back
// to a bearer token.
func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

// Middleware validates API keys on every request and rejects with 401
// through writeError when the key is missing, unknown, or revoked.
func Middleware(store storage.APIKeyStore, writeError func(w http.ResponseWriter, status int, code, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := extractKey(r)
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key required")
				return
			}

			key, err := store.ValidateAPIKey(r.Context(), apiKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
