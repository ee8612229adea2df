// Package domain contains the business logic for project submissions.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trenddesk/trenddesk/internal/chains"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/internal/validation"
)

// Common errors returned by the projects service.
var (
	ErrNotFound      = errors.New("project not found")
	ErrInvalidName   = errors.New("invalid project name")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidChain  = errors.New("invalid chain")
)

// ProjectStore defines the storage operations needed by the projects domain.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *storage.Project) error
	GetProject(ctx context.Context, id string) (*storage.Project, error)
	ListProjects(ctx context.Context) ([]storage.Project, error)
}

// VoteStore provides vote counts for project views.
type VoteStore interface {
	CountVotes(ctx context.Context, projectID string) (int, error)
}

type service struct {
	projects ProjectStore
	votes    VoteStore
	now      func() time.Time
}

// NewService creates a new projects service.
func NewService(projects ProjectStore, votes VoteStore) *service {
	return &service{
		projects: projects,
		votes:    votes,
		now:      time.Now,
	}
}

// Submit creates a pending project. Payment verification and listing
// happen later through the verification service.
func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Project, error) {
	if err := validation.ValidateProjectName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSymbol, err)
	}
	chain := strings.ToUpper(strings.TrimSpace(req.Chain))
	if chain == "" {
		chain = chains.ChainNone
	}
	if err := validation.ValidateChain(chain); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChain, err)
	}

	now := s.now().UTC()
	p := &storage.Project{
		ID:               storage.NewProjectID(req.Name, now),
		Name:             strings.TrimSpace(req.Name),
		Symbol:           symbol,
		LogoURL:          strings.TrimSpace(req.LogoURL),
		ContractOrWallet: strings.TrimSpace(req.ContractOrWallet),
		Description:      strings.TrimSpace(req.Description),
		Chain:            chain,
		SubmittedBy:      req.SubmittedBy,
		SubmittedAt:      now,
	}

	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return fromStorage(p, 0), nil
}

// Get returns a project with its vote count.
func (s *service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.projects.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	votes, err := s.votes.CountVotes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}
	return fromStorage(p, votes), nil
}

// List returns all projects in submission order.
func (s *service) List(ctx context.Context) ([]Project, error) {
	stored, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	out := make([]Project, 0, len(stored))
	for i := range stored {
		votes, err := s.votes.CountVotes(ctx, stored[i].ID)
		if err != nil {
			return nil, fmt.Errorf("counting votes: %w", err)
		}
		out = append(out, *fromStorage(&stored[i], votes))
	}
	return out, nil
}
