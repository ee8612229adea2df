package domain

// Outcome classifies the result of a vote attempt.
type Outcome string

const (
	OutcomeRecorded        Outcome = "recorded"
	OutcomeAlreadyVoted    Outcome = "already_voted"
	OutcomeProjectNotFound Outcome = "project_not_found"
	OutcomeNotEligible     Outcome = "not_eligible"
)

// VoteResult is the outcome of a single vote attempt. Reason is
// suitable for direct display to the voter.
type VoteResult struct {
	Outcome     Outcome `json:"outcome"`
	Reason      string  `json:"reason"`
	ProjectID   string  `json:"project_id"`
	ProjectName string  `json:"project_name,omitempty"`
	// Votes is the project's vote count after the attempt. Zero when
	// the project does not exist, and a real count otherwise.
	Votes int `json:"votes"`
}
