// Package cli implements the trenddesk command line client.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	server  string
	apiKey  string
)

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "trenddesk",
		Short:   "Community crypto project curation CLI",
		Long:    `TrendDesk is a CLI for submitting projects, verifying listing payments, voting, and viewing the leaderboard.`,
		Version: version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: trenddesk.toml or td.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "server URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")

	// Add subcommands
	rootCmd.AddCommand(createSubmitCmd())
	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createInfoCmd())
	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createVoteCmd())
	rootCmd.AddCommand(createLeaderboardCmd())
	rootCmd.AddCommand(createAuthCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd.Execute()
}

// getServer returns the server URL from flag, env, config file, or credentials
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv("TRENDDESK_SERVER"); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}

	// 4. Default
	return "http://localhost:8080"
}

// getAPIKey returns the API key from flag, env, config, or credentials file
func getAPIKey() string {
	// 1. Command line flag
	if apiKey != "" {
		return apiKey
	}

	// 2. Environment variable
	if env := os.Getenv("TRENDDESK_API_KEY"); env != "" {
		return env
	}

	// 3. Credentials file (keyed by server URL)
	serverURL := getServer()
	if cred := getCredential(serverURL); cred != "" {
		return cred
	}

	return ""
}
