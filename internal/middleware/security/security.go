// Package security provides security-related HTTP middleware.
package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the configuration for security middleware
type Config struct {
	// FilterEnabled enables the security filter
	FilterEnabled bool
	// MaxBodySizeMB is the maximum request body size in megabytes
	MaxBodySizeMB int
}

// healthCheckPaths are exempt from security filtering
var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
}

// blockedPathPrefixes are path prefixes that indicate scanner/attack traffic
var blockedPathPrefixes = []string{
	"/.php",
	"/wp-admin",
	"/wp-login",
	"/wp-content",
	"/.git/",
	"/.env",
	"/cgi-bin/",
	"/phpmyadmin",
	"/phpinfo",
	"/shell",
	"/config.",
	"/.htaccess",
	"/server-status",
	"/xmlrpc.php",
}

// blockedPathPatterns are patterns that indicate malicious requests
var blockedPathPatterns = []string{
	"../",     // Path traversal
	"..%2f",   // URL-encoded path traversal
	"..%5c",   // URL-encoded backslash traversal
	"%2e%2e/", // Double URL-encoded path traversal
	"%00",     // Null byte injection
}

// MaxBodySizeMiddleware returns middleware that limits the request body
// size. The limit is specified in megabytes.
func MaxBodySizeMiddleware(maxSizeMB int) func(http.Handler) http.Handler {
	maxBytes := int64(maxSizeMB) * 1024 * 1024

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// FilterMiddleware returns middleware that blocks requests matching
// known scanner probes and path traversal attempts.
func FilterMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if healthCheckPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			path := strings.ToLower(r.URL.Path)

			for _, prefix := range blockedPathPrefixes {
				if strings.HasPrefix(path, prefix) {
					writeBlockedResponse(w)
					return
				}
			}
			for _, pattern := range blockedPathPatterns {
				if strings.Contains(path, pattern) {
					writeBlockedResponse(w)
					return
				}
			}

			// Decode once more to catch encoding tricks.
			rawPath := r.URL.RawPath
			if rawPath == "" {
				rawPath = r.URL.Path
			}
			if decoded, err := url.PathUnescape(rawPath); err == nil && decoded != path {
				decodedLower := strings.ToLower(decoded)
				for _, pattern := range blockedPathPatterns {
					if strings.Contains(decodedLower, pattern) {
						writeBlockedResponse(w)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeBlockedResponse writes a generic 400 response without revealing what triggered the block
func writeBlockedResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    "BAD_REQUEST",
			"message": "Invalid request",
		},
	})
}
