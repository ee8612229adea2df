package domain

// Entry is one ranked row of the leaderboard.
type Entry struct {
	Rank      int    `json:"rank"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Votes     int    `json:"votes"`
}
