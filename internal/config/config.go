package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the server
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Chains      ChainsConfig
	Wallets     WalletsConfig
	Listing     ListingConfig
	Membership  MembershipConfig
	Telegram    TelegramConfig
	Leaderboard LeaderboardConfig
	Auth        AuthConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	RateLimit   RateLimitConfig
	Security    SecurityConfig
	Proxy       ProxyConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// ChainsConfig holds per-chain RPC settings for payment verification
type ChainsConfig struct {
	// EtherscanAPIKey authorizes eth_getTransactionByHash proxy calls
	// for both ETH and BNB. Verification of those chains fails with a
	// configuration error without it.
	EtherscanAPIKey string
	EthEndpoint     string
	BnbEndpoint     string
	SolanaRPCURL    string
	// SolanaLenient keeps a Solana transaction verified even when the
	// receiving wallet cannot be confirmed among its account keys.
	SolanaLenient  bool
	TimeoutSeconds int
}

// WalletsConfig maps each chain to its receiving address
type WalletsConfig struct {
	SOL string
	ETH string
	BNB string
}

// Table returns the chain -> expected receiving address mapping.
func (w WalletsConfig) Table() map[string]string {
	t := make(map[string]string, 3)
	if w.SOL != "" {
		t["SOL"] = w.SOL
	}
	if w.ETH != "" {
		t["ETH"] = w.ETH
	}
	if w.BNB != "" {
		t["BNB"] = w.BNB
	}
	return t
}

// ListingConfig holds listing fee settings
type ListingConfig struct {
	FeeUSD float64
}

// MembershipConfig holds the group identifiers a voter must belong to
type MembershipConfig struct {
	GroupA string
	GroupB string
}

// TelegramConfig holds Bot API settings for membership checks and publishing
type TelegramConfig struct {
	BotToken           string
	ListingChannel     string
	LeaderboardChannel string
	// APIBaseURL points at a self-hosted Bot API server when set.
	APIBaseURL string
}

// LeaderboardConfig holds leaderboard settings
type LeaderboardConfig struct {
	Limit           int
	IntervalSeconds int
	AutoPost        bool
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Type string // "none" or "api-key"
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig holds Prometheus metrics settings
type MetricsConfig struct {
	Enabled bool
	Port    int // separate port for /metrics, 0 disables the listener
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
}

// SecurityConfig holds security filter settings
type SecurityConfig struct {
	FilterEnabled bool
	MaxBodySizeMB int
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool
	TrustedProxies []string // CIDR notation
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 8080),
			Host:         getEnv("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 120),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "./data/trenddesk.db"),
			},
		},
		Chains: ChainsConfig{
			EtherscanAPIKey: getEnv("ETHERSCAN_API_KEY", ""),
			EthEndpoint:     getEnv("ETH_API_ENDPOINT", "https://api.etherscan.io/api"),
			BnbEndpoint:     getEnv("BNB_API_ENDPOINT", "https://api.bscscan.com/api"),
			SolanaRPCURL:    getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			SolanaLenient:   getEnvBool("SOLANA_LENIENT_MATCH", false),
			TimeoutSeconds:  getEnvInt("CHAIN_RPC_TIMEOUT", 20),
		},
		Wallets: WalletsConfig{
			SOL: getEnv("WALLET_SOL", ""),
			ETH: getEnv("WALLET_ETH", ""),
			BNB: getEnv("WALLET_BNB", ""),
		},
		Listing: ListingConfig{
			FeeUSD: getEnvFloat("LISTING_FEE_USD", 150.0),
		},
		Membership: MembershipConfig{
			GroupA: getEnv("MEMBERSHIP_GROUP_A", ""),
			GroupB: getEnv("MEMBERSHIP_GROUP_B", ""),
		},
		Telegram: TelegramConfig{
			BotToken:           getEnv("BOT_TOKEN", ""),
			ListingChannel:     getEnv("LISTING_CHANNEL", ""),
			LeaderboardChannel: getEnv("LEADERBOARD_CHANNEL", ""),
			APIBaseURL:         getEnv("TELEGRAM_API_URL", ""),
		},
		Leaderboard: LeaderboardConfig{
			Limit:           getEnvInt("LEADERBOARD_LIMIT", 10),
			IntervalSeconds: getEnvInt("LEADERBOARD_INTERVAL", 6*60*60),
			AutoPost:        getEnvBool("LEADERBOARD_AUTO_POST", true),
		},
		Auth: AuthConfig{
			Type: getEnv("AUTH_TYPE", "none"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_RPM", 300),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST", 50),
			CleanupMinutes: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		},
		Security: SecurityConfig{
			FilterEnabled: getEnvBool("SECURITY_FILTER_ENABLED", true),
			MaxBodySizeMB: getEnvInt("SECURITY_MAX_BODY_SIZE_MB", 5),
		},
		Proxy: ProxyConfig{
			TrustProxy:     getEnvBool("TRUST_PROXY", false),
			TrustedProxies: getEnvStringSlice("TRUSTED_PROXIES", []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
