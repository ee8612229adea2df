package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/pkg/client"
)

func createLeaderboardCmd() *cobra.Command {
	var limit int
	var jsonOutput bool
	var post bool

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the project leaderboard",
		Long: `Show the top projects ranked by vote count. With --post, ask the
server to publish the current leaderboard to its announcement channel
instead (requires an API key).

EXAMPLES:
  trenddesk leaderboard
  trenddesk leaderboard --limit 25
  trenddesk leaderboard --post
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if post {
				return runLeaderboardPost()
			}
			return runLeaderboard(limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&post, "post", false, "publish the leaderboard to the announcement channel")

	return cmd
}

func runLeaderboard(limit int, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())

	entries, err := c.Leaderboard(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No votes yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tSYMBOL\tVOTES\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", e.Rank, e.Name, e.Symbol, e.Votes, e.ProjectID)
	}
	return w.Flush()
}

func runLeaderboardPost() error {
	c := client.New(getServer(), getAPIKey())

	if err := c.PostLeaderboard(context.Background()); err != nil {
		return fmt.Errorf("failed to post leaderboard: %w", err)
	}

	fmt.Println("✅ Leaderboard posted")
	return nil
}
