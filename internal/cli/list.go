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

func createListCmd() *cobra.Command {
	var limit int
	var jsonOutput bool
	var chain string
	var listedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted projects",
		Long: `List projects in submission order.

EXAMPLES:
  # List all projects
  trenddesk list

  # Only projects that completed listing
  trenddesk list --listed

  # Filter by chain
  trenddesk list --chain SOL

  # Output as JSON
  trenddesk list --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(chain, limit, listedOnly, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of items to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&chain, "chain", "", "filter by chain (SOL, ETH, BNB)")
	cmd.Flags().BoolVar(&listedOnly, "listed", false, "only show listed projects")

	return cmd
}

func runList(chain string, limit int, listedOnly, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())

	all, err := c.ListProjects(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	var projects []client.Project
	for _, p := range all {
		if chain != "" && p.Chain != chain {
			continue
		}
		if listedOnly && !p.Listed {
			continue
		}
		projects = append(projects, p)
	}

	if limit > 0 && len(projects) > limit {
		projects = projects[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"projects": projects,
			"count":    len(projects),
		})
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCHAIN\tVOTES\tPAID\tLISTED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%t\n", p.ID, p.Name, p.Chain, p.Votes, p.PaymentVerified, p.Listed)
	}
	w.Flush()

	return nil
}
