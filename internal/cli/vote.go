package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/pkg/client"
)

func createVoteCmd() *cobra.Command {
	var voterID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "vote <project-id>",
		Short: "Cast a vote for a project",
		Long: `Cast a vote for a project on behalf of a voter. The voter must be
a member of both required community groups; each voter counts at most
once per project.

EXAMPLES:
  trenddesk vote bitmart_1724900000 --voter 12345
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(args[0], voterID, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&voterID, "voter", "", "voter identifier (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("voter")

	return cmd
}

func runVote(projectID, voterID string, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())

	result, err := c.Vote(context.Background(), projectID, voterID)
	if err != nil {
		return fmt.Errorf("vote request failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch result.Outcome {
	case "recorded":
		fmt.Printf("✅ Vote recorded for %s (%d votes)\n", result.ProjectName, result.Votes)
	case "already_voted":
		fmt.Printf("ℹ️  Already voted for %s (%d votes)\n", result.ProjectName, result.Votes)
	case "project_not_found":
		fmt.Printf("❌ Project %s not found\n", projectID)
	case "not_eligible":
		fmt.Printf("❌ Not eligible: %s\n", result.Reason)
	default:
		fmt.Printf("Outcome: %s\n", result.Outcome)
	}

	return nil
}
