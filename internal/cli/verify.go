package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/pkg/client"
)

func createVerifyCmd() *cobra.Command {
	var txRef string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify <project-id>",
		Short: "Verify a listing payment",
		Long: `Verify that a blockchain transaction pays the listing fee for a
project. On success the project is marked paid and listed, and the
listing is announced.

Each invocation is a single attempt; rejected attempts can simply be
re-run with a corrected transaction reference.

EXAMPLES:
  # Verify an ETH/BNB payment
  trenddesk verify bitmart_1724900000 --tx 0xabc...

  # Verify a Solana payment
  trenddesk verify solproj_1724900000 --tx 5Ej8...
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args[0], txRef, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&txRef, "tx", "", "transaction hash or signature (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("tx")

	return cmd
}

func runVerify(id, txRef string, jsonOutput bool) error {
	c := client.New(getServer(), getAPIKey())

	fmt.Printf("🔍 Verifying payment for %s\n", id)

	result, err := c.VerifyPayment(context.Background(), id, txRef)
	if err != nil {
		return fmt.Errorf("verification request failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println()
	if result.Verified {
		fmt.Printf("✅ Payment verified: %s\n", result.Reason)
		if result.Listed {
			fmt.Println("   Project is listed.")
		}
		if result.PublishError != "" {
			fmt.Printf("   ⚠️  Listing announcement failed: %s\n", result.PublishError)
		}
	} else {
		fmt.Printf("❌ Verification failed (%s): %s\n", result.Code, result.Reason)
	}

	return nil
}
