// Package domain contains the business logic for the vote leaderboard.
package domain

import (
	"context"
	"fmt"
	"sort"

	"github.com/trenddesk/trenddesk/internal/storage"
)

// DefaultLimit is the number of entries returned when no limit is given.
const DefaultLimit = 10

// Snapshotter defines the storage operations needed by the leaderboard domain.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*storage.Snapshot, error)
}

type service struct {
	store Snapshotter
}

// NewService creates a new leaderboard service.
func NewService(store Snapshotter) *service {
	return &service{store: store}
}

// Top returns the current leaderboard, at most limit entries.
func (s *service) Top(ctx context.Context, limit int) ([]Entry, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Rank(snap, limit), nil
}

// Rank orders the snapshot's projects by vote count, descending. Projects
// with equal counts keep their submission order. Zero-vote projects still
// rank, but a snapshot with no votes at all yields an empty leaderboard.
func Rank(snap *storage.Snapshot, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	total := 0
	for _, voters := range snap.Votes {
		total += len(voters)
	}
	if total == 0 {
		return nil
	}

	counts := make([]int, len(snap.Projects))
	for i, p := range snap.Projects {
		counts[i] = len(snap.Votes[p.ID])
	}

	idx := make([]int, len(snap.Projects))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return counts[idx[a]] > counts[idx[b]]
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}

	entries := make([]Entry, 0, len(idx))
	for rank, i := range idx {
		p := snap.Projects[i]
		entries = append(entries, Entry{
			Rank:      rank + 1,
			ProjectID: p.ID,
			Name:      p.Name,
			Symbol:    p.Symbol,
			Votes:     counts[i],
		})
	}
	return entries
}
