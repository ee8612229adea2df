// Package transport provides HTTP request/response types for the projects domain.
package transport

import (
	"time"

	"github.com/trenddesk/trenddesk/internal/projects/domain"
)

// SubmitRequest is the HTTP request body for submitting a project.
type SubmitRequest struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	LogoURL          string `json:"logo,omitempty"`
	ContractOrWallet string `json:"contract_or_wallet,omitempty"`
	Description      string `json:"description,omitempty"`
	Chain            string `json:"chain"`
	SubmittedBy      string `json:"submitted_by"`
}

// ToDomain converts SubmitRequest to domain.SubmitRequest.
func (r SubmitRequest) ToDomain() domain.SubmitRequest {
	return domain.SubmitRequest{
		Name:             r.Name,
		Symbol:           r.Symbol,
		LogoURL:          r.LogoURL,
		ContractOrWallet: r.ContractOrWallet,
		Description:      r.Description,
		Chain:            r.Chain,
		SubmittedBy:      r.SubmittedBy,
	}
}

// ProjectResponse is the JSON view of a project.
type ProjectResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol"`
	LogoURL          string    `json:"logo,omitempty"`
	ContractOrWallet string    `json:"contract_or_wallet,omitempty"`
	Description      string    `json:"description,omitempty"`
	Chain            string    `json:"chain"`
	SubmittedBy      string    `json:"submitted_by"`
	SubmittedAt      time.Time `json:"submitted_at"`
	PaymentVerified  bool      `json:"payment_verified"`
	Listed           bool      `json:"listed"`
	Votes            int       `json:"votes"`
}

func toResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:               p.ID,
		Name:             p.Name,
		Symbol:           p.Symbol,
		LogoURL:          p.LogoURL,
		ContractOrWallet: p.ContractOrWallet,
		Description:      p.Description,
		Chain:            p.Chain,
		SubmittedBy:      p.SubmittedBy,
		SubmittedAt:      p.SubmittedAt,
		PaymentVerified:  p.PaymentVerified,
		Listed:           p.Listed,
		Votes:            p.Votes,
	}
}
