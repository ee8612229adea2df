// Package publish renders and delivers channel announcements.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lbdomain "github.com/trenddesk/trenddesk/internal/leaderboard/domain"
	"github.com/trenddesk/trenddesk/internal/storage"
)

// Sender delivers a text message to a chat or channel.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramPublisher posts listing and leaderboard announcements to the
// configured Telegram channels.
type TelegramPublisher struct {
	sender             Sender
	listingChannel     string
	leaderboardChannel string
	logger             *slog.Logger
}

// NewTelegramPublisher creates a publisher for the given channels.
func NewTelegramPublisher(sender Sender, listingChannel, leaderboardChannel string, logger *slog.Logger) *TelegramPublisher {
	return &TelegramPublisher{
		sender:             sender,
		listingChannel:     listingChannel,
		leaderboardChannel: leaderboardChannel,
		logger:             logger,
	}
}

// PublishListing announces a newly listed project.
func (t *TelegramPublisher) PublishListing(ctx context.Context, p *storage.Project) error {
	if t.listingChannel == "" {
		return fmt.Errorf("no listing channel configured")
	}
	if err := t.sender.SendMessage(ctx, t.listingChannel, FormatListing(p)); err != nil {
		return fmt.Errorf("sending listing announcement: %w", err)
	}
	t.logger.Info("listing announced", "project", p.ID, "channel", t.listingChannel)
	return nil
}

// PostLeaderboard announces the current leaderboard.
func (t *TelegramPublisher) PostLeaderboard(ctx context.Context, entries []lbdomain.Entry) error {
	if t.leaderboardChannel == "" {
		return fmt.Errorf("no leaderboard channel configured")
	}
	if err := t.sender.SendMessage(ctx, t.leaderboardChannel, FormatLeaderboard(entries)); err != nil {
		return fmt.Errorf("sending leaderboard: %w", err)
	}
	t.logger.Info("leaderboard posted", "entries", len(entries), "channel", t.leaderboardChannel)
	return nil
}

// FormatListing renders the listing announcement text for a project.
func FormatListing(p *storage.Project) string {
	wallet := p.ContractOrWallet
	if wallet == "" {
		wallet = "N/A"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 New Project Listed: %s (%s)\n\n", p.Name, p.Symbol)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "Contract/Wallet: %s\n", wallet)
	fmt.Fprintf(&b, "Submitted by: %s\n", p.SubmittedBy)
	fmt.Fprintf(&b, "Payment status: %t\n", p.PaymentVerified)
	return b.String()
}

// FormatLeaderboard renders the leaderboard announcement text.
func FormatLeaderboard(entries []lbdomain.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Top %d Projects\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%d. %s (%s) — %d votes — id: %s\n", e.Rank, e.Name, e.Symbol, e.Votes, e.ProjectID)
	}
	return b.String()
}
