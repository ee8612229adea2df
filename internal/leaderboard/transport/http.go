// Package transport provides HTTP handlers for the leaderboard domain.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trenddesk/trenddesk/internal/leaderboard/domain"
)

// Service defines the leaderboard service interface for HTTP transport.
type Service interface {
	Top(ctx context.Context, limit int) ([]domain.Entry, error)
}

// Poster triggers an immediate leaderboard announcement.
type Poster interface {
	Post(ctx context.Context) error
}

// Handler handles HTTP requests for the leaderboard.
type Handler struct {
	svc    Service
	poster Poster
}

// NewHandler creates a new leaderboard HTTP handler. poster may be nil
// when no announcement channel is configured.
func NewHandler(svc Service, poster Poster) *Handler {
	return &Handler{svc: svc, poster: poster}
}

// RegisterReadRoutes registers read-only leaderboard routes (no auth required).
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleTop)
}

// RegisterWriteRoutes registers write leaderboard routes (auth required).
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/post", h.handlePost)
}

func (h *Handler) handleTop(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	entries, err := h.svc.Top(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute leaderboard")
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
	})
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if h.poster == nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "No leaderboard channel configured")
		return
	}

	if err := h.poster.Post(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "PUBLISH_FAILED", "Failed to post leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Leaderboard posted",
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
