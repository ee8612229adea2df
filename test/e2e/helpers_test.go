//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trenddesk/trenddesk/internal/config"
	"github.com/trenddesk/trenddesk/internal/server"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/pkg/client"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	Telegram          *fakeTelegram
	TestServer        *httptest.Server
	Store             storage.Store
}

// fakeTelegram is an in-process stand-in for the Telegram Bot API. It
// answers getChatMember from a per-user status table and records every
// sendMessage call.
type fakeTelegram struct {
	Server *httptest.Server

	mu       sync.Mutex
	statuses map[string]string // userID -> membership status
	messages []sentMessage
}

type sentMessage struct {
	ChatID string
	Text   string
}

func newFakeTelegram() *fakeTelegram {
	ft := &fakeTelegram{
		statuses: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bote2e-token/getChatMember", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		userID := r.FormValue("user_id")

		ft.mu.Lock()
		status, ok := ft.statuses[userID]
		ft.mu.Unlock()
		if !ok {
			status = "member"
		}

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"status": status,
			},
		})
	})
	mux.HandleFunc("/bote2e-token/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ft.mu.Lock()
		ft.messages = append(ft.messages, sentMessage{
			ChatID: r.FormValue("chat_id"),
			Text:   r.FormValue("text"),
		})
		ft.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 1,
			},
		})
	})

	ft.Server = httptest.NewServer(mux)
	return ft
}

// SetStatus sets the membership status returned for a user in every group
func (ft *fakeTelegram) SetStatus(userID, status string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.statuses[userID] = status
}

// Messages returns a copy of all recorded sendMessage calls
func (ft *fakeTelegram) Messages() []sentMessage {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	out := make([]sentMessage, len(ft.messages))
	copy(out, ft.messages)
	return out
}

// setupPostgresE starts a Postgres container and returns the connection string (error-returning variant for TestMain)
func setupPostgresE(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("trenddesk"),
		postgres.WithUsername("trenddesk"),
		postgres.WithPassword("trenddesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return postgresContainer, connString, nil
}

// startServerE starts the trenddesk server in-process (error-returning variant for TestMain)
func startServerE(connString, telegramURL string) (*httptest.Server, storage.Store, error) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: config.StorageConfig{
			Type: "postgres",
			Postgres: config.PostgresConfig{
				URL: connString,
			},
		},
		Chains: config.ChainsConfig{
			EthEndpoint:    "https://api.etherscan.io/api",
			BnbEndpoint:    "https://api.bscscan.com/api",
			SolanaRPCURL:   "https://api.mainnet-beta.solana.com",
			TimeoutSeconds: 5,
		},
		Wallets: config.WalletsConfig{
			ETH: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		},
		Membership: config.MembershipConfig{
			GroupA: "@groupa",
			GroupB: "@groupb",
		},
		Telegram: config.TelegramConfig{
			BotToken:           "e2e-token",
			ListingChannel:     "@listings",
			LeaderboardChannel: "@leaders",
			APIBaseURL:         telegramURL,
		},
		Leaderboard: config.LeaderboardConfig{
			Limit:           10,
			IntervalSeconds: 6 * 60 * 60,
			AutoPost:        false,
		},
		Auth:      config.AuthConfig{Type: "api-key"},
		Logging:   config.LoggingConfig{Level: "debug", Format: "text"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Security:  config.SecurityConfig{FilterEnabled: false, MaxBodySizeMB: 5},
		Proxy:     config.ProxyConfig{TrustProxy: false},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	srv := server.New(cfg, store, logger)
	testServer := httptest.NewServer(srv.Handler())

	return testServer, store, nil
}

// newClient creates a new API client for the test server
func newClient(testServer *httptest.Server, apiKey string) *client.Client {
	return client.New(testServer.URL, apiKey)
}

// createTestAPIKey creates a test API key using the store directly
func createTestAPIKey(t *testing.T, store storage.Store, name string) string {
	key, err := store.CreateAPIKey(context.Background(), name)
	require.NoError(t, err, "Failed to create API key")
	return key
}

// submitProject submits a project and returns it
func submitProject(t *testing.T, c *client.Client, name, symbol, chain, submittedBy string) *client.Project {
	project, err := c.Submit(context.Background(), client.SubmitRequest{
		Name:        name,
		Symbol:      symbol,
		Chain:       chain,
		SubmittedBy: submittedBy,
	})
	require.NoError(t, err, "Failed to submit project")
	return project
}
