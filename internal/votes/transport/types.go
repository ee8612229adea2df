// Package transport provides HTTP request/response types for the votes domain.
package transport

// VoteRequest is the HTTP request body for casting a vote.
type VoteRequest struct {
	VoterID string `json:"voter_id"`
}
