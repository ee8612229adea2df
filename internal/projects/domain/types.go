package domain

import (
	"time"

	"github.com/trenddesk/trenddesk/internal/storage"
)

// SubmitRequest carries the fields of a project submission
type SubmitRequest struct {
	Name             string
	Symbol           string
	LogoURL          string
	ContractOrWallet string
	Description      string
	Chain            string // SOL, ETH, BNB or NONE
	SubmittedBy      string
}

// Project is the domain view of a stored project
type Project struct {
	ID               string
	Name             string
	Symbol           string
	LogoURL          string
	ContractOrWallet string
	Description      string
	Chain            string
	SubmittedBy      string
	SubmittedAt      time.Time
	PaymentVerified  bool
	Listed           bool
	Votes            int
}

func fromStorage(p *storage.Project, votes int) *Project {
	return &Project{
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
		Votes:            votes,
	}
}
