// Package transport provides HTTP handlers for the projects domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trenddesk/trenddesk/internal/observability/metrics"
	"github.com/trenddesk/trenddesk/internal/projects/domain"
)

// Service defines the projects service interface for HTTP transport.
type Service interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
}

// Handler handles HTTP requests for projects.
type Handler struct {
	svc Service
}

// NewHandler creates a new projects HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only project routes (no auth required).
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
}

// RegisterWriteRoutes registers write project routes (auth required).
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.handleSubmit)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list projects")
		return
	}

	data := make([]ProjectResponse, len(projects))
	for i := range projects {
		data[i] = toResponse(&projects[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"projects": data,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get project")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024*1024)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON")
		return
	}

	p, err := h.svc.Submit(r.Context(), req.ToDomain())
	if err != nil {
		metrics.ProjectSubmit(req.Chain, "error")
		switch {
		case errors.Is(err, domain.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case errors.Is(err, domain.ErrInvalidSymbol):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case errors.Is(err, domain.ErrInvalidChain):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit project")
		}
		return
	}

	metrics.ProjectSubmit(p.Chain, "created")
	writeJSON(w, http.StatusCreated, toResponse(p))
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
