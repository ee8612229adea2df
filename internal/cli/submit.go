package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/pkg/client"
)

func createSubmitCmd() *cobra.Command {
	var name string
	var symbol string
	var chain string
	var wallet string
	var description string
	var logo string
	var submittedBy string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a project for listing",
		Long: `Submit a new project. The project starts unlisted; pay the listing
fee to the configured wallet and run 'trenddesk verify' with the
transaction hash to complete the listing.

Flags override values from trenddesk.toml.

EXAMPLES:
  # Submit using trenddesk.toml
  trenddesk submit

  # Submit with explicit fields
  trenddesk submit --name "Bitmart" --symbol BMC --chain ETH
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.SubmitRequest{
				Name:             name,
				Symbol:           symbol,
				Chain:            chain,
				ContractOrWallet: wallet,
				Description:      description,
				LogoURL:          logo,
				SubmittedBy:      submittedBy,
			}

			// Fill blanks from the project config
			if cfg := loadProjectConfigSilent(); cfg != nil {
				if req.Name == "" {
					req.Name = cfg.Name
				}
				if req.Symbol == "" {
					req.Symbol = cfg.Symbol
				}
				if req.Chain == "" {
					req.Chain = cfg.Chain
				}
				if req.ContractOrWallet == "" {
					req.ContractOrWallet = cfg.Wallet
				}
				if req.Description == "" {
					req.Description = cfg.Description
				}
				if req.LogoURL == "" {
					req.LogoURL = cfg.Logo
				}
				if req.SubmittedBy == "" {
					req.SubmittedBy = cfg.SubmittedBy
				}
			}

			if req.Name == "" {
				return fmt.Errorf("project name required (--name or trenddesk.toml)")
			}
			if req.Symbol == "" {
				return fmt.Errorf("project symbol required (--symbol or trenddesk.toml)")
			}

			return runSubmit(req, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&symbol, "symbol", "", "ticker symbol")
	cmd.Flags().StringVar(&chain, "chain", "", "payment chain: SOL, ETH or BNB")
	cmd.Flags().StringVar(&wallet, "wallet", "", "project contract or wallet address")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&logo, "logo", "", "logo URL")
	cmd.Flags().StringVar(&submittedBy, "submitted-by", "", "submitter identifier")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runSubmit(req client.SubmitRequest, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())

	p, err := c.Submit(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to submit project: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	fmt.Printf("✅ Project submitted: %s\n", p.Name)
	fmt.Printf("   ID:    %s\n", p.ID)
	fmt.Printf("   Chain: %s\n", p.Chain)
	fmt.Println()
	fmt.Println("To complete the listing, pay the listing fee and run:")
	fmt.Printf("  trenddesk verify %s --tx <transaction hash>\n", p.ID)

	return nil
}
