package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// credentialStore is the on-disk layout of ~/.trenddesk/credentials.
// Keys are stored per server URL so one install can talk to several
// deployments.
type credentialStore struct {
	Servers map[string]storedKey `yaml:"servers"`
}

type storedKey struct {
	APIKey string `yaml:"api_key"`
	Label  string `yaml:"label,omitempty"`
}

func createAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(createAuthLoginCmd())
	cmd.AddCommand(createAuthLogoutCmd())
	cmd.AddCommand(createAuthStatusCmd())

	return cmd
}

func createAuthLoginCmd() *cobra.Command {
	var serverFlag string
	var apiKeyFlag string
	var labelFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with server",
		Long: `Save API key credentials for a TrendDesk server.

The API key is stored in ~/.trenddesk/credentials with secure file permissions.

EXAMPLES:
  # Interactive login (prompts for API key)
  trenddesk auth login

  # Login to a specific server
  trenddesk auth login --server https://trenddesk.example.com

  # Non-interactive login (for CI)
  trenddesk auth login --api-key $TRENDDESK_API_KEY
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(serverFlag, apiKeyFlag, labelFlag)
		},
	}

	cmd.Flags().StringVar(&serverFlag, "server", "", "server URL (default from config)")
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key (prompts if not provided)")
	cmd.Flags().StringVar(&labelFlag, "label", "", "optional label shown in auth status")

	return cmd
}

func createAuthLogoutCmd() *cobra.Command {
	var serverFlag string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear credentials",
		Long: `Remove saved credentials for a server.

EXAMPLES:
  # Logout from default server
  trenddesk auth logout

  # Clear all credentials
  trenddesk auth logout --all
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout(serverFlag, allFlag)
		},
	}

	cmd.Flags().StringVar(&serverFlag, "server", "", "server URL (default from config)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "clear all credentials")

	return cmd
}

func createAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus()
		},
	}
}

func runAuthLogin(serverURL, apiKeyInput, label string) error {
	if serverURL == "" {
		serverURL = getServer()
	}

	apiKey := apiKeyInput
	if apiKey == "" {
		var err error
		apiKey, err = promptForKey(serverURL)
		if err != nil {
			return err
		}
	}
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	fmt.Printf("Validating credentials with %s...\n", serverURL)
	if err := probeAPIKey(serverURL, apiKey); err != nil {
		return err
	}

	store, err := readCredentialStore()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	store.Servers[serverURL] = storedKey{APIKey: apiKey, Label: label}
	if err := writeCredentialStore(store); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("✅ Authenticated to %s (key: %s)\n", serverURL, maskAPIKey(apiKey))
	fmt.Printf("   Credentials saved to %s\n", credentialsFilePath())

	return nil
}

// promptForKey reads the API key from the terminal without echo, or
// from stdin when piped.
func promptForKey(serverURL string) (string, error) {
	fmt.Printf("Enter API key for %s: ", serverURL)

	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		byteKey, err := term.ReadPassword(stdinFd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(byteKey)), nil
	}

	key, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(key), nil
}

func runAuthLogout(serverURL string, all bool) error {
	if all {
		path := credentialsFilePath()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		fmt.Println("✅ All credentials cleared")
		return nil
	}

	if serverURL == "" {
		serverURL = getServer()
	}

	store, err := readCredentialStore()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if _, exists := store.Servers[serverURL]; !exists {
		fmt.Printf("No credentials found for %s\n", serverURL)
		return nil
	}
	delete(store.Servers, serverURL)

	if err := writeCredentialStore(store); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("✅ Logged out from %s\n", serverURL)
	return nil
}

func runAuthStatus() error {
	store, err := readCredentialStore()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if len(store.Servers) == 0 {
		fmt.Println("Not authenticated to any servers")
		fmt.Println("\nRun 'trenddesk auth login' to authenticate")
		return nil
	}

	servers := make([]string, 0, len(store.Servers))
	for s := range store.Servers {
		servers = append(servers, s)
	}
	sort.Strings(servers)

	fmt.Println("Authenticated servers:")
	for _, server := range servers {
		cred := store.Servers[server]
		if cred.Label != "" {
			fmt.Printf("  • %s (%s, key: %s)\n", server, cred.Label, maskAPIKey(cred.APIKey))
		} else {
			fmt.Printf("  • %s (key: %s)\n", server, maskAPIKey(cred.APIKey))
		}
	}

	return nil
}

// Credential file helpers

func credentialsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trenddesk"
	}
	return filepath.Join(home, ".trenddesk")
}

func credentialsFilePath() string {
	return filepath.Join(credentialsDir(), "credentials")
}

// readCredentialStore loads the credential file. A missing file is an
// empty store, not an error.
func readCredentialStore() (*credentialStore, error) {
	store := &credentialStore{Servers: make(map[string]storedKey)}

	data, err := os.ReadFile(credentialsFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, store); err != nil {
		return nil, err
	}
	if store.Servers == nil {
		store.Servers = make(map[string]storedKey)
	}
	return store, nil
}

func writeCredentialStore(store *credentialStore) error {
	if err := os.MkdirAll(credentialsDir(), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(store)
	if err != nil {
		return err
	}
	return os.WriteFile(credentialsFilePath(), data, 0600)
}

func getCredential(serverURL string) string {
	store, err := readCredentialStore()
	if err != nil {
		return ""
	}
	return store.Servers[serverURL].APIKey
}

// probeAPIKey checks a key against the server before saving it. Project
// listing is open to everyone, so the probe has to hit an authenticated
// route: an empty submission stops at the auth middleware with 401 for
// a bad key and at input validation with 400 for a good one.
func probeAPIKey(serverURL, apiKey string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		serverURL+"/api/v1/projects", strings.NewReader("{}"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to validate credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code == "UNAUTHORIZED" {
		return fmt.Errorf("invalid API key")
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
