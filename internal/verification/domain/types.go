package domain

import "github.com/trenddesk/trenddesk/internal/chains"

// Status of a verification attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerifying Status = "verifying"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
)

// VerifyRequest identifies a single verification attempt.
type VerifyRequest struct {
	ProjectID string `json:"project_id"`
	TxRef     string `json:"tx_ref"`
}

// VerifyResult is the outcome of one attempt. Reason is suitable for
// direct display to the submitter.
type VerifyResult struct {
	Status    Status      `json:"status"`
	Chain     string      `json:"chain,omitempty"`
	Verified  bool        `json:"verified"`
	Code      chains.Code `json:"code,omitempty"`
	Reason    string      `json:"reason"`
	Listed    bool        `json:"listed"`
	Published bool        `json:"published"`
	// PublishError is set when the listing announcement could not be
	// delivered. The listing itself stands regardless.
	PublishError string `json:"publish_error,omitempty"`
}
