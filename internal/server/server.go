// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trenddesk/trenddesk/internal/auth"
	"github.com/trenddesk/trenddesk/internal/chains"
	"github.com/trenddesk/trenddesk/internal/chains/evm"
	"github.com/trenddesk/trenddesk/internal/chains/solana"
	"github.com/trenddesk/trenddesk/internal/config"
	leaderboardDomain "github.com/trenddesk/trenddesk/internal/leaderboard/domain"
	leaderboardTransport "github.com/trenddesk/trenddesk/internal/leaderboard/transport"
	"github.com/trenddesk/trenddesk/internal/middleware/logging"
	"github.com/trenddesk/trenddesk/internal/middleware/ratelimit"
	"github.com/trenddesk/trenddesk/internal/middleware/realip"
	"github.com/trenddesk/trenddesk/internal/middleware/security"
	"github.com/trenddesk/trenddesk/internal/observability/metrics"
	"github.com/trenddesk/trenddesk/internal/projects/domain"
	projectsTransport "github.com/trenddesk/trenddesk/internal/projects/transport"
	"github.com/trenddesk/trenddesk/internal/publish"
	"github.com/trenddesk/trenddesk/internal/storage"
	"github.com/trenddesk/trenddesk/internal/telegram"
	verificationDomain "github.com/trenddesk/trenddesk/internal/verification/domain"
	verificationTransport "github.com/trenddesk/trenddesk/internal/verification/transport"
	votesDomain "github.com/trenddesk/trenddesk/internal/votes/domain"
	votesTransport "github.com/trenddesk/trenddesk/internal/votes/transport"
)

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *slog.Logger
	router *chi.Mux

	// Services typed via transport interfaces
	projectsSvc     projectsTransport.Service
	verificationSvc verificationTransport.Service
	votesSvc        votesTransport.Service
	leaderboardSvc  leaderboardTransport.Service

	poster *leaderboardDomain.Poster
}

// New creates a new server
func New(cfg *config.Config, store storage.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		router: chi.NewRouter(),
	}

	timeout := time.Duration(cfg.Chains.TimeoutSeconds) * time.Second

	// Chain registry with one verifier per supported chain
	registry := chains.NewRegistry()
	registry.Register(evm.New(chains.ChainETH, cfg.Chains.EthEndpoint, cfg.Chains.EtherscanAPIKey, timeout))
	registry.Register(evm.New(chains.ChainBNB, cfg.Chains.BnbEndpoint, cfg.Chains.EtherscanAPIKey, timeout))
	registry.Register(solana.New(cfg.Chains.SolanaRPCURL, cfg.Chains.SolanaLenient, timeout))

	// Telegram is both the membership gate and the publish channel
	var tgOpts []telegram.Option
	if cfg.Telegram.APIBaseURL != "" {
		tgOpts = append(tgOpts, telegram.WithBaseURL(cfg.Telegram.APIBaseURL))
	}
	tg := telegram.New(cfg.Telegram.BotToken, timeout, tgOpts...)
	publisher := publish.NewTelegramPublisher(tg, cfg.Telegram.ListingChannel, cfg.Telegram.LeaderboardChannel, logger)

	// Create domain services
	projectsImpl := domain.NewService(store, store)
	verifyImpl := verificationDomain.NewService(store, registry, cfg.Wallets.Table(), publisher)
	votesImpl := votesDomain.NewService(store, store, tg, cfg.Membership.GroupA, cfg.Membership.GroupB)
	leaderboardImpl := leaderboardDomain.NewService(store)

	// Wrap projects service with logging middleware
	s.projectsSvc = domain.LoggingMiddleware(logger)(projectsImpl)
	s.verificationSvc = verifyImpl
	s.votesSvc = votesImpl
	s.leaderboardSvc = leaderboardImpl

	if cfg.Telegram.LeaderboardChannel != "" {
		interval := time.Duration(cfg.Leaderboard.IntervalSeconds) * time.Second
		s.poster = leaderboardDomain.NewPoster(leaderboardImpl, publisher, cfg.Leaderboard.Limit, interval, logger)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

// RunLeaderboardPoster runs the periodic leaderboard announcement loop
// until ctx is cancelled. It returns immediately when auto-posting is
// disabled or no channel is configured.
func (s *Server) RunLeaderboardPoster(ctx context.Context) {
	if s.poster == nil || !s.cfg.Leaderboard.AutoPost {
		return
	}
	s.poster.Run(ctx)
}

func (s *Server) setupMiddleware() {
	// Order matters! Security middleware runs first to block malicious requests early.

	// 1. Real IP extraction (must be first to set client IP for other middleware)
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	// 2. Security filter (blocks malicious patterns, bypasses health checks)
	s.router.Use(security.FilterMiddleware(s.cfg.Security.FilterEnabled))

	// 3. Body size limit
	s.router.Use(security.MaxBodySizeMiddleware(s.cfg.Security.MaxBodySizeMB))

	// 4. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))

	// 5. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleHealth)

	// Create HTTP handlers for each domain
	projectsHandler := projectsTransport.NewHandler(s.projectsSvc)
	verificationHandler := verificationTransport.NewHandler(s.verificationSvc)
	votesHandler := votesTransport.NewHandler(s.votesSvc)
	var poster leaderboardTransport.Poster
	if s.poster != nil {
		poster = s.poster
	}
	leaderboardHandler := leaderboardTransport.NewHandler(s.leaderboardSvc, poster)

	// Auth middleware for write operations
	requireAuth := func(r chi.Router) {
		if s.cfg.Auth.Type == "api-key" {
			r.Use(auth.Middleware(s.store, writeError))
		}
	}

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			// Read operations - no auth required
			projectsHandler.RegisterReadRoutes(r)

			// Voting is gated by group membership, not API keys
			votesHandler.RegisterRoutes(r)

			// Write operations - auth required
			r.Group(func(r chi.Router) {
				requireAuth(r)
				projectsHandler.RegisterWriteRoutes(r)
				verificationHandler.RegisterRoutes(r)
			})
		})

		r.Route("/leaderboard", func(r chi.Router) {
			leaderboardHandler.RegisterReadRoutes(r)

			r.Group(func(r chi.Router) {
				requireAuth(r)
				leaderboardHandler.RegisterWriteRoutes(r)
			})
		})
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
