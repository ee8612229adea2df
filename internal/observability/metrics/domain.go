// Package metrics provides Prometheus instrumentation for trenddesk.
package metrics

// ProjectSubmit records a project submission.
func ProjectSubmit(chain, status string) {
	if !enabled {
		return
	}
	projectSubmitTotal.WithLabelValues(chain, status).Inc()
}

// Verification records a payment verification attempt.
func Verification(chain, result string) {
	if !enabled {
		return
	}
	verificationTotal.WithLabelValues(chain, result).Inc()
}

// Vote records a vote attempt.
func Vote(outcome string) {
	if !enabled {
		return
	}
	votesTotal.WithLabelValues(outcome).Inc()
}

// LeaderboardPost records a leaderboard announcement.
func LeaderboardPost(status string) {
	if !enabled {
		return
	}
	leaderboardPostTotal.WithLabelValues(status).Inc()
}
