package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Disabled(t *testing.T) {
	mw := Middleware(Config{Enabled: false})

	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMiddleware_BurstThenLimit(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 3, CleanupMinutes: 10})
	defer rl.Stop()
	handler := rl.Middleware()(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestMiddleware_PerIPIsolation(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 1, CleanupMinutes: 10})
	defer rl.Stop()
	handler := rl.Middleware()(okHandler())

	first := httptest.NewRequest("GET", "/api/v1/projects", nil)
	first.RemoteAddr = "203.0.113.5:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different IP has its own bucket
	other := httptest.NewRequest("GET", "/api/v1/projects", nil)
	other.RemoteAddr = "203.0.113.6:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_HealthExempt(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 1, CleanupMinutes: 10})
	defer rl.Stop()
	handler := rl.Middleware()(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
