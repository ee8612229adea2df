package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trenddesk/trenddesk/internal/config"
	leaderboardDomain "github.com/trenddesk/trenddesk/internal/leaderboard/domain"
	"github.com/trenddesk/trenddesk/internal/observability/metrics"
	"github.com/trenddesk/trenddesk/internal/publish"
	"github.com/trenddesk/trenddesk/internal/server"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/internal/telegram"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "trenddesk-server",
		Short:   "TrendDesk server - community crypto project curation",
		Version: version,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newLeaderboardCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}

	cmd.AddCommand(newKeysCreateCmd())
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysRevokeCmd())

	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var name string
	var outputFile string
	var quiet bool
	var show bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long: `Create a new API key for submitting projects and verifying payments.

By default, the key is written to a file in the current directory.
The key is only shown once - it cannot be retrieved later.

EXAMPLES:
  # Create key, write to file (default)
  trenddesk-server keys create --name "ops"

  # Create key, write to specific file
  trenddesk-server keys create --name "ops" --output /secure/path/key.txt

  # Create key, print only (for piping to secrets manager)
  trenddesk-server keys create --name "ops" --quiet | gh secret set TRENDDESK_API_KEY

  # Create key, display on screen
  trenddesk-server keys create --name "ops" --show
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysCreate(name, outputFile, quiet, show)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name/label for the key (required)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write key to file (default: ./trenddesk-key-{name}.txt)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the key (for piping)")
	cmd.Flags().BoolVar(&show, "show", false, "display key on screen")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysList()
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	var keyID string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API key",
		Long: `Revoke an API key to prevent further use.

Use 'trenddesk-server keys list' to find the key ID.

EXAMPLES:
  trenddesk-server keys revoke --id abc123
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysRevoke(keyID)
		},
	}

	cmd.Flags().StringVar(&keyID, "id", "", "key ID to revoke (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the full project and vote state",
	}

	cmd.AddCommand(newSnapshotExportCmd())
	cmd.AddCommand(newSnapshotImportCmd())

	return cmd
}

func newSnapshotExportCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all projects and votes as JSON",
		Long: `Export the full state (projects in submission order plus vote sets)
as a JSON document. Unknown fields from previously imported snapshots
are preserved.

EXAMPLES:
  trenddesk-server snapshot export --output backup.json
  trenddesk-server snapshot export > backup.json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotExport(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write snapshot to file (default: stdout)")

	return cmd
}

func newSnapshotImportCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a snapshot, replacing the stored state",
		Long: `Import a previously exported snapshot. The stored state is replaced
wholesale; projects and votes not present in the snapshot are dropped.

EXAMPLES:
  trenddesk-server snapshot import --input backup.json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotImport(inputFile)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "snapshot file to import (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Leaderboard operations",
	}

	cmd.AddCommand(newLeaderboardPostCmd())

	return cmd
}

func newLeaderboardPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Post the current leaderboard to the announcement channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboardPost()
		},
	}
}

// Key management commands

func runKeysCreate(name, outputFile string, quiet, show bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Create the key
	key, err := store.CreateAPIKey(context.Background(), name)
	if err != nil {
		return fmt.Errorf("creating API key: %w", err)
	}

	// Handle output modes
	if quiet {
		// Just print the key for piping
		fmt.Println(key)
		return nil
	}

	if show {
		// Display on screen with warning
		fmt.Println("⚠️  API key (save this - it cannot be retrieved later):")
		fmt.Println()
		fmt.Println("   ", key)
		fmt.Println()
		return nil
	}

	// Default: write to file
	if outputFile == "" {
		outputFile = fmt.Sprintf("./trenddesk-key-%s.txt", name)
	}

	// Create directory if needed
	dir := filepath.Dir(outputFile)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}

	// Write key to file with secure permissions
	if err := os.WriteFile(outputFile, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("writing key to file: %w", err)
	}

	fmt.Printf("✅ API key created: %s\n", name)
	fmt.Printf("   Written to: %s (mode 0600)\n", outputFile)
	fmt.Println()
	fmt.Println("   ⚠️  This key cannot be retrieved later. Keep it safe!")
	fmt.Println()
	fmt.Println("   Usage:")
	fmt.Println("     export TRENDDESK_API_KEY=$(cat", outputFile+")")
	fmt.Println("     trenddesk submit --name \"My Project\"")

	return nil
}

func runKeysList() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	keys, err := store.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("listing API keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found")
		fmt.Println()
		fmt.Println("Create one with: trenddesk-server keys create --name \"my-key\"")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED")
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != "" {
			lastUsed = k.LastUsedAt
		}
		// Truncate ID for display
		idDisplay := k.ID
		if len(k.ID) > 8 {
			idDisplay = k.ID[:8] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idDisplay, k.Name, k.CreatedAt, lastUsed)
	}
	w.Flush()

	return nil
}

func runKeysRevoke(keyID string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Find the full key ID if partial was provided
	keys, err := store.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("listing API keys: %w", err)
	}

	var fullKeyID string
	for _, k := range keys {
		if k.ID == keyID || (len(keyID) >= 8 && k.ID[:8] == keyID[:8]) {
			fullKeyID = k.ID
			break
		}
	}

	if fullKeyID == "" {
		return fmt.Errorf("key not found: %s", keyID)
	}

	if err := store.RevokeAPIKey(context.Background(), fullKeyID); err != nil {
		return fmt.Errorf("revoking API key: %w", err)
	}

	fmt.Printf("✅ API key revoked: %s\n", keyID)
	return nil
}

// Snapshot commands

func runSnapshotExport(outputFile string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	if outputFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Exported %d projects to %s\n", len(snap.Projects), outputFile)
	return nil
}

func runSnapshotImport(inputFile string) error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportSnapshot(context.Background(), &snap); err != nil {
		return fmt.Errorf("importing snapshot: %w", err)
	}

	fmt.Printf("✅ Imported %d projects from %s\n", len(snap.Projects), inputFile)
	return nil
}

// Leaderboard commands

func runLeaderboardPost() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Telegram.LeaderboardChannel == "" {
		return fmt.Errorf("LEADERBOARD_CHANNEL is not configured")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	timeout := time.Duration(cfg.Chains.TimeoutSeconds) * time.Second
	var tgOpts []telegram.Option
	if cfg.Telegram.APIBaseURL != "" {
		tgOpts = append(tgOpts, telegram.WithBaseURL(cfg.Telegram.APIBaseURL))
	}
	tg := telegram.New(cfg.Telegram.BotToken, timeout, tgOpts...)
	publisher := publish.NewTelegramPublisher(tg, cfg.Telegram.ListingChannel, cfg.Telegram.LeaderboardChannel, logger)

	svc := leaderboardDomain.NewService(store)
	poster := leaderboardDomain.NewPoster(svc, publisher, cfg.Leaderboard.Limit, 0, logger)

	if err := poster.Post(context.Background()); err != nil {
		return fmt.Errorf("posting leaderboard: %w", err)
	}

	fmt.Println("✅ Leaderboard posted")
	return nil
}

// openStore loads config and opens migrated storage for one-shot commands.
func openStore() (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.New(cfg.Storage, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// Server command

func runServe() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("starting trenddesk-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled, "trenddesk")

	// Initialize storage
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Create server
	srv := server.New(cfg, store, logger)

	// Create HTTP server with configurable timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Metrics on a separate listener so it stays off the public port
	var metricsServer *http.Server
	if cfg.Metrics.Enabled && cfg.Metrics.Port > 0 {
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: srv.MetricsHandler(),
		}
		go func() {
			logger.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Periodic leaderboard announcements
	posterCtx, stopPoster := context.WithCancel(context.Background())
	defer stopPoster()
	go srv.RunLeaderboardPoster(posterCtx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	stopPoster()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(ctx)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
