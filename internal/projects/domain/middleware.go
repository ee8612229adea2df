package domain

import (
	"context"
	"log/slog"
	"time"
)

// loggingService is the interface required for logging middleware.
type loggingService interface {
	Submit(ctx context.Context, req SubmitRequest) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
}

// LoggingMiddleware returns a service middleware that logs all operations.
func LoggingMiddleware(logger *slog.Logger) func(loggingService) *loggingMiddleware {
	return func(next loggingService) *loggingMiddleware {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   loggingService
	logger *slog.Logger
}

func (m *loggingMiddleware) Submit(ctx context.Context, req SubmitRequest) (*Project, error) {
	start := time.Now()
	p, err := m.next.Submit(ctx, req)
	id := ""
	if p != nil {
		id = p.ID
	}
	m.logger.Info("Submit",
		"name", req.Name,
		"chain", req.Chain,
		"id", id,
		"duration", time.Since(start),
		"error", err,
	)
	return p, err
}

func (m *loggingMiddleware) Get(ctx context.Context, id string) (*Project, error) {
	start := time.Now()
	p, err := m.next.Get(ctx, id)
	m.logger.Debug("Get",
		"id", id,
		"duration", time.Since(start),
		"error", err,
	)
	return p, err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]Project, error) {
	start := time.Now()
	projects, err := m.next.List(ctx)
	m.logger.Debug("List",
		"count", len(projects),
		"duration", time.Since(start),
		"error", err,
	)
	return projects, err
}
