package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"trenddesk.toml", "td.toml"}

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server      string `toml:"server"`
	Name        string `toml:"name,omitempty"`
	Symbol      string `toml:"symbol,omitempty"`
	Chain       string `toml:"chain,omitempty"`
	Wallet      string `toml:"wallet,omitempty"`
	Description string `toml:"description,omitempty"`
	Logo        string `toml:"logo,omitempty"`
	SubmittedBy string `toml:"submitted_by,omitempty"`
}

// GlobalConfig is the global configuration (stored in ~/.trenddesk/config.yaml)
type GlobalConfig struct {
	Server string `yaml:"server"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var serverURL string
	var name string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a trenddesk.toml configuration file in the current directory.

This file stores project-specific settings like the server URL,
project name, chain and payout wallet.

EXAMPLES:
  # Create config with default server
  trenddesk config init

  # Create config for a specific server
  trenddesk config init --server https://trenddesk.example.com

  # Overwrite existing config
  trenddesk config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(serverURL, name, force)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server URL")
	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to directory name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		Long: `Display the current configuration.

Shows both the local project config (trenddesk.toml) and the global config from ~/.trenddesk/config.yaml.

EXAMPLES:
  trenddesk config show
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
}

func runConfigInit(serverURL, name string, force bool) error {
	configPath := "trenddesk.toml"

	// Check if any config file already exists
	for _, cfgFile := range projectConfigFiles {
		if _, err := os.Stat(cfgFile); err == nil && !force {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", cfgFile)
		}
	}

	// Default project name to current directory
	if name == "" {
		cwd, err := os.Getwd()
		if err == nil {
			name = filepath.Base(cwd)
		}
	}

	// Generate TOML config
	content := fmt.Sprintf(`# TrendDesk project configuration

server = "%s"
name = "%s"

# Chain the listing fee is paid on: SOL, ETH or BNB
chain = "ETH"

# symbol = "TKN"
# wallet = "0x..."
# description = "What the project does"
# logo = "https://example.com/logo.png"
# submitted_by = "your telegram user id"
`, serverURL, name)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to customize settings\n", configPath)
	fmt.Println("  2. Run 'trenddesk auth login' to authenticate")
	fmt.Println("  3. Run 'trenddesk submit' to submit the project")

	return nil
}

func runConfigShow() error {
	fmt.Println("Configuration sources (in order of precedence):")
	fmt.Println()

	// 1. Command line flags
	fmt.Println("1. Command line flags")
	fmt.Println("   --server, --api-key, --config")
	fmt.Println()

	// 2. Environment variables
	fmt.Println("2. Environment variables")
	serverEnv := os.Getenv("TRENDDESK_SERVER")
	keyEnv := os.Getenv("TRENDDESK_API_KEY")
	if serverEnv != "" {
		fmt.Printf("   TRENDDESK_SERVER=%s\n", serverEnv)
	} else {
		fmt.Println("   TRENDDESK_SERVER=(not set)")
	}
	if keyEnv != "" {
		fmt.Printf("   TRENDDESK_API_KEY=%s\n", maskAPIKey(keyEnv))
	} else {
		fmt.Println("   TRENDDESK_API_KEY=(not set)")
	}
	fmt.Println()

	// 3. Local project config
	fmt.Println("3. Local project config (trenddesk.toml or td.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("   (not found)")
		} else {
			fmt.Printf("   Error: %v\n", err)
		}
	} else {
		fmt.Printf("   Loaded from: %s\n", configPath)
		if projectConfig.Server != "" {
			fmt.Printf("   server: %s\n", projectConfig.Server)
		}
		if projectConfig.Name != "" {
			fmt.Printf("   name: %s\n", projectConfig.Name)
		}
		if projectConfig.Chain != "" {
			fmt.Printf("   chain: %s\n", projectConfig.Chain)
		}
		if projectConfig.Wallet != "" {
			fmt.Printf("   wallet: %s\n", projectConfig.Wallet)
		}
	}
	fmt.Println()

	// 4. Global config
	fmt.Println("4. Global config (~/.trenddesk/config.yaml)")
	globalPath := filepath.Join(credentialsDir(), "config.yaml")
	globalData, err := os.ReadFile(globalPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("   (not found)")
		} else {
			fmt.Printf("   Error: %v\n", err)
		}
	} else {
		var globalConfig GlobalConfig
		if err := yaml.Unmarshal(globalData, &globalConfig); err == nil {
			if globalConfig.Server != "" {
				fmt.Printf("   server: %s\n", globalConfig.Server)
			}
		}
	}
	fmt.Println()

	// 5. Credentials
	fmt.Println("5. Credentials (~/.trenddesk/credentials)")
	creds, err := readCredentialStore()
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
	} else {
		if len(creds.Servers) == 0 {
			fmt.Println("   (no credentials stored)")
		} else {
			for server, cred := range creds.Servers {
				fmt.Printf("   %s: %s\n", server, maskAPIKey(cred.APIKey))
			}
		}
	}
	fmt.Println()

	// Effective config
	fmt.Println("Effective configuration:")
	fmt.Printf("   Server:  %s\n", getServer())
	if key := getAPIKey(); key != "" {
		fmt.Printf("   API Key: %s\n", maskAPIKey(key))
	} else {
		fmt.Println("   API Key: (not set)")
	}

	return nil
}

// loadProjectConfig loads the project config from the first matching config file.
// Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	// If --config flag was provided, use that directly
	if cfgFile != "" {
		config, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return config, cfgFile, nil
	}

	// Search for config files in order
	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			config, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return config, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Returns nil if the file doesn't exist, but returns errors for parse failures.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}
