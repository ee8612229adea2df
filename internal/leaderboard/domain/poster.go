package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trenddesk/trenddesk/internal/observability/metrics"
)

// Publisher delivers a rendered leaderboard to an announcement channel.
type Publisher interface {
	PostLeaderboard(ctx context.Context, entries []Entry) error
}

// Service is the leaderboard read surface the poster needs.
type Service interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Poster periodically publishes the leaderboard.
type Poster struct {
	service   Service
	publisher Publisher
	limit     int
	interval  time.Duration
	logger    *slog.Logger
}

// NewPoster creates a leaderboard poster.
func NewPoster(service Service, publisher Publisher, limit int, interval time.Duration, logger *slog.Logger) *Poster {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Poster{
		service:   service,
		publisher: publisher,
		limit:     limit,
		interval:  interval,
		logger:    logger,
	}
}

// Run posts the leaderboard every interval until ctx is cancelled.
// Publish failures are logged, never fatal; the next tick retries.
func (p *Poster) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("leaderboard poster started", "interval", p.interval, "limit", p.limit)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("leaderboard poster stopped")
			return
		case <-ticker.C:
			if err := p.Post(ctx); err != nil {
				p.logger.Error("leaderboard post failed", "error", err)
			}
		}
	}
}

// Post publishes the current leaderboard once. An empty leaderboard is
// skipped silently.
func (p *Poster) Post(ctx context.Context) error {
	entries, err := p.service.Top(ctx, p.limit)
	if err != nil {
		return fmt.Errorf("ranking leaderboard: %w", err)
	}
	if len(entries) == 0 {
		p.logger.Debug("leaderboard empty, skipping post")
		return nil
	}
	if err := p.publisher.PostLeaderboard(ctx, entries); err != nil {
		metrics.LeaderboardPost("error")
		return fmt.Errorf("publishing leaderboard: %w", err)
	}
	metrics.LeaderboardPost("posted")
	return nil
}
