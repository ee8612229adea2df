package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/pkg/client"
)

func createInfoCmd() *cobra.Command {
	var jsonOutput bool
	var showVoters bool

	cmd := &cobra.Command{
		Use:   "info <project-id>",
		Short: "Show project details",
		Long: `Display detailed information about a project.

EXAMPLES:
  # Show project info
  trenddesk info bitmart_1724900000

  # Include the voter list
  trenddesk info bitmart_1724900000 --voters

  # Output as JSON
  trenddesk info bitmart_1724900000 --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0], showVoters, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&showVoters, "voters", false, "include the voter list")

	return cmd
}

func runInfo(id string, showVoters, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())
	ctx := context.Background()

	p, err := c.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	var voters *client.VotersResponse
	if showVoters {
		voters, err = c.Voters(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list voters: %w", err)
		}
	}

	if jsonOutput {
		out := map[string]any{"project": p}
		if voters != nil {
			out["voters"] = voters.Voters
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Project:  %s (%s)\n", p.Name, p.Symbol)
	fmt.Printf("ID:       %s\n", p.ID)
	fmt.Printf("Chain:    %s\n", p.Chain)
	if p.ContractOrWallet != "" {
		fmt.Printf("Wallet:   %s\n", p.ContractOrWallet)
	}
	fmt.Printf("Paid:     %t\n", p.PaymentVerified)
	fmt.Printf("Listed:   %t\n", p.Listed)
	fmt.Printf("Votes:    %d\n", p.Votes)
	if p.SubmittedBy != "" {
		fmt.Printf("By:       %s\n", p.SubmittedBy)
	}
	if p.SubmittedAt != "" {
		fmt.Printf("At:       %s\n", p.SubmittedAt)
	}
	if p.Description != "" {
		fmt.Printf("\n%s\n", p.Description)
	}

	if voters != nil {
		fmt.Printf("\nVoters (%d):\n", voters.Count)
		for _, v := range voters.Voters {
			fmt.Printf("  • %s\n", v)
		}
	}

	return nil
}
