// Package transport provides HTTP handlers for the votes domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trenddesk/trenddesk/internal/observability/metrics"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/internal/votes/domain"
)

// Service defines the votes service interface for HTTP transport.
type Service interface {
	CastVote(ctx context.Context, projectID, voterID string) (*domain.VoteResult, error)
	Voters(ctx context.Context, projectID string) ([]string, error)
}

// Handler handles HTTP requests for voting.
type Handler struct {
	svc Service
}

// NewHandler creates a new votes HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the vote routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/vote", h.handleVote)
	r.Get("/{id}/voters", h.handleVoters)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
		return
	}

	var req VoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON")
		return
	}
	if req.VoterID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "voter_id is required")
		return
	}

	result, err := h.svc.CastVote(r.Context(), chi.URLParam(r, "id"), req.VoterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record vote")
		return
	}

	metrics.Vote(string(result.Outcome))

	// Typed outcomes map onto statuses; the body always carries the
	// full result for display.
	status := http.StatusOK
	switch result.Outcome {
	case domain.OutcomeProjectNotFound:
		status = http.StatusNotFound
	case domain.OutcomeNotEligible:
		status = http.StatusForbidden
	}
	writeJSON(w, status, result)
}

func (h *Handler) handleVoters(w http.ResponseWriter, r *http.Request) {
	voters, err := h.svc.Voters(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list voters")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"voters": voters,
		"count":  len(voters),
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
