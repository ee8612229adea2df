// Package domain contains the business logic for the vote ledger.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/trenddesk/trenddesk/internal/storage"
)

// ProjectStore defines the project lookups needed by the vote ledger.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*storage.Project, error)
}

// VoteStore defines the vote set operations needed by the vote ledger.
type VoteStore interface {
	AppendVoter(ctx context.Context, projectID, voterID string) (bool, error)
	CountVotes(ctx context.Context, projectID string) (int, error)
	ListVoters(ctx context.Context, projectID string) ([]string, error)
}

// MembershipGate answers whether a user belongs to a chat. The status
// strings follow the Telegram chat-member vocabulary.
type MembershipGate interface {
	ChatMemberStatus(ctx context.Context, chatID, userID string) (string, error)
}

// Membership states that count as belonging to a group.
var eligibleStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

type service struct {
	projects ProjectStore
	votes    VoteStore
	gate     MembershipGate
	groupA   string
	groupB   string
}

// NewService creates a new vote ledger. Voters must belong to both
// groupA and groupB to be eligible.
func NewService(projects ProjectStore, votes VoteStore, gate MembershipGate, groupA, groupB string) *service {
	return &service{
		projects: projects,
		votes:    votes,
		gate:     gate,
		groupA:   groupA,
		groupB:   groupB,
	}
}

// CastVote records one vote by voterID for projectID. Eligibility,
// missing projects, and duplicates are all reported as typed outcomes,
// not errors; only storage write failures surface as errors.
func (s *service) CastVote(ctx context.Context, projectID, voterID string) (*VoteResult, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &VoteResult{
				Outcome:   OutcomeProjectNotFound,
				Reason:    "project not found",
				ProjectID: projectID,
			}, nil
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}

	if res := s.checkEligibility(ctx, voterID); res != nil {
		count, err := s.votes.CountVotes(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("counting votes: %w", err)
		}
		res.ProjectID = p.ID
		res.ProjectName = p.Name
		res.Votes = count
		return res, nil
	}

	added, err := s.votes.AppendVoter(ctx, projectID, voterID)
	if err != nil {
		return nil, fmt.Errorf("recording vote: %w", err)
	}

	count, err := s.votes.CountVotes(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}

	if !added {
		return &VoteResult{
			Outcome:     OutcomeAlreadyVoted,
			Reason:      "you have already voted for this project",
			ProjectID:   p.ID,
			ProjectName: p.Name,
			Votes:       count,
		}, nil
	}
	return &VoteResult{
		Outcome:     OutcomeRecorded,
		Reason:      fmt.Sprintf("your vote for %s has been recorded", p.Name),
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Votes:       count,
	}, nil
}

// checkEligibility returns a NotEligible result, or nil when the voter
// may vote. A gate failure denies the vote with a diagnostic; it never
// propagates as an error.
func (s *service) checkEligibility(ctx context.Context, voterID string) *VoteResult {
	for _, group := range []string{s.groupA, s.groupB} {
		status, err := s.gate.ChatMemberStatus(ctx, group, voterID)
		if err != nil {
			return &VoteResult{
				Outcome: OutcomeNotEligible,
				Reason: fmt.Sprintf("could not check your membership in %s; make sure you have joined %s and %s",
					group, s.groupA, s.groupB),
			}
		}
		if !eligibleStatuses[status] {
			return &VoteResult{
				Outcome: OutcomeNotEligible,
				Reason:  fmt.Sprintf("please join both groups before voting: %s and %s", s.groupA, s.groupB),
			}
		}
	}
	return nil
}

// Voters lists the voter identifiers recorded for a project.
func (s *service) Voters(ctx context.Context, projectID string) ([]string, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return s.votes.ListVoters(ctx, projectID)
}
