// Package domain contains the business logic for payment verification
// and listing.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/trenddesk/trenddesk/internal/chains"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/internal/validation"
)

// Common errors returned by the verification service.
var (
	ErrNotFound     = errors.New("project not found")
	ErrInvalidTxRef = errors.New("invalid transaction reference")
)

// ProjectStore defines the storage operations needed by the verification domain.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*storage.Project, error)
	MarkListed(ctx context.Context, id string) error
}

// Publisher announces a listed project to the public channel.
type Publisher interface {
	PublishListing(ctx context.Context, p *storage.Project) error
}

type service struct {
	projects  ProjectStore
	registry  *chains.Registry
	wallets   map[string]string
	publisher Publisher
}

// NewService creates a new verification service. wallets maps chain
// codes to the expected receiving address.
func NewService(projects ProjectStore, registry *chains.Registry, wallets map[string]string, publisher Publisher) *service {
	return &service{
		projects:  projects,
		registry:  registry,
		wallets:   wallets,
		publisher: publisher,
	}
}

// Verify runs a single verification attempt for (project, txRef). Each
// call is one attempt; the service never retries on its own. A rejected
// attempt leaves the project untouched and the caller may re-invoke
// with a corrected reference.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	p, err := s.projects.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}

	// Listing is monotonic. Repeating a verification for a project that
	// already passed is a no-op, not a second announcement.
	if p.Listed {
		return &VerifyResult{
			Status:   StatusVerified,
			Chain:    p.Chain,
			Verified: true,
			Reason:   "project is already listed",
			Listed:   true,
		}, nil
	}

	verifier, ok := s.registry.Get(p.Chain)
	if !ok {
		return &VerifyResult{
			Status: StatusRejected,
			Chain:  p.Chain,
			Code:   chains.CodeManual,
			Reason: "no chain configured for this project; manual verification required",
		}, nil
	}

	if err := validation.ValidateTxRef(p.Chain, req.TxRef); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTxRef, err)
	}

	wallet, ok := s.wallets[p.Chain]
	if !ok || wallet == "" {
		return &VerifyResult{
			Status: StatusRejected,
			Chain:  p.Chain,
			Code:   chains.CodeConfig,
			Reason: fmt.Sprintf("no receiving wallet configured for chain %s", p.Chain),
		}, nil
	}
	if err := validation.ValidateWalletAddress(p.Chain, wallet); err != nil {
		return &VerifyResult{
			Status: StatusRejected,
			Chain:  p.Chain,
			Code:   chains.CodeConfig,
			Reason: fmt.Sprintf("receiving wallet configured for chain %s is invalid: %v", p.Chain, err),
		}, nil
	}

	res := verifier.VerifyPayment(ctx, req.TxRef, wallet)
	if !res.Verified {
		return &VerifyResult{
			Status: StatusRejected,
			Chain:  p.Chain,
			Code:   res.Code,
			Reason: res.Reason,
		}, nil
	}

	// A failed save here is fatal: the project must not be announced
	// without the listing state durably recorded first.
	if err := s.projects.MarkListed(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("saving listing state: %w", err)
	}
	p.PaymentVerified = true
	p.Listed = true

	result := &VerifyResult{
		Status:    StatusVerified,
		Chain:     p.Chain,
		Verified:  true,
		Reason:    res.Reason,
		Listed:    true,
		Published: true,
	}

	// The listing state is authoritative once saved. A publish failure
	// is reported, never rolled back.
	if err := s.publisher.PublishListing(ctx, p); err != nil {
		result.Published = false
		result.PublishError = err.Error()
	}

	return result, nil
}
