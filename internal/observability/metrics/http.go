// Package metrics provides Prometheus instrumentation for trenddesk.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware returns HTTP middleware for request metrics.
func Middleware(next http.Handler) http.Handler {
	if !enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			duration := time.Since(start).Seconds()

			// Normalize path to avoid high cardinality from IDs
			path := normalizePath(r.URL.Path)

			httpRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(rw.status),
			).Inc()

			httpDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(duration)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures status code.
func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// normalizePath converts dynamic path segments to placeholders to avoid
// high cardinality metrics. For example:
//
//	/api/v1/projects/bitmart_1724900000/vote -> /api/v1/projects/{id}/vote
func normalizePath(path string) string {
	// Health check endpoints - keep as-is
	if path == "/health" || path == "/healthz" || path == "/readyz" {
		return path
	}
	// Metrics endpoint - keep as-is
	if path == "/metrics" {
		return path
	}

	// API v1 paths - normalize dynamic segments
	if strings.HasPrefix(path, "/api/v1/") {
		parts := strings.Split(path[8:], "/")
		resource := parts[0] // "projects", "leaderboard", etc.

		var normalized []string
		normalized = append(normalized, "/api/v1", resource)

		for i := 1; i < len(parts); i++ {
			part := parts[i]
			if part == "" {
				continue
			}
			if isLikelyID(part) {
				normalized = append(normalized, "{id}")
			} else {
				normalized = append(normalized, part)
			}
		}
		return "/" + strings.Join(normalized, "/")
	}
	return path
}

// isLikelyID returns true if segment looks like an identifier
func isLikelyID(segment string) bool {
	// Project ids are name_timestamp
	if i := strings.LastIndexByte(segment, '_'); i > 0 && isNumeric(segment[i+1:]) {
		return true
	}
	// Hash strings (transaction hashes, addresses)
	if len(segment) >= 40 && isHex(strings.TrimPrefix(segment, "0x")) {
		return true
	}
	// UUIDs with dashes
	if strings.Count(segment, "-") >= 4 {
		return true
	}
	// Pure numbers
	if isNumeric(segment) {
		return true
	}
	return false
}

// isHex returns true if string is hexadecimal (supports both upper and lowercase)
func isHex(s string) bool {
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return false
		}
	}
	return len(s) > 0
}

// isNumeric returns true if string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
