// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wowzarush/backend/internal/auth"
	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/config"
	"github.com/wowzarush/backend/internal/health"
	"github.com/wowzarush/backend/internal/identity"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/metrics"
	"github.com/wowzarush/backend/internal/moderation"
	"github.com/wowzarush/backend/internal/ratelimit"
	"github.com/wowzarush/backend/internal/realtime"
	"github.com/wowzarush/backend/internal/reports"
	"github.com/wowzarush/backend/internal/risk"
	"github.com/wowzarush/backend/internal/security"
	"github.com/wowzarush/backend/internal/spamguard"
	"github.com/wowzarush/backend/internal/traces"
	"github.com/wowzarush/backend/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	authMgr     *auth.Manager
	profiles    identity.Store
	balances    identity.BalanceChecker
	identitySvc *identity.Service
	guard       *spamguard.Guard
	campaignSvc *campaign.Service
	reportSvc   *reports.Service
	scorer      *risk.Scorer
	moderation  *moderation.Service
	realtimeHub *realtime.Hub
	rateLimiter *ratelimit.Limiter
	healthReg   *health.Registry
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger

	traceShutdown func(context.Context) error
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithBalanceChecker sets a custom wallet balance source (for testing).
func WithBalanceChecker(b identity.BalanceChecker) Option {
	return func(s *Server) {
		s.balances = b
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logging.New(cfg.LogLevel, "json"),
		healthReg: health.NewRegistry(),
	}

	// Apply options first (may set balances/logger)
	for _, opt := range opts {
		opt(s)
	}

	// Context for initialization
	ctx := context.Background()

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var flags risk.FlagStore
	var campaignStore campaign.Store
	var reportStore reports.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		profileStore := identity.NewPostgresStore(db)
		if err := profileStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate profile store", "error", err)
		}
		s.profiles = profileStore

		cs := campaign.NewPostgresStore(db)
		if err := cs.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate campaign store", "error", err)
		}
		campaignStore = cs

		rs := reports.NewPostgresStore(db)
		if err := rs.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate report store", "error", err)
		}
		reportStore = rs

		fs := risk.NewPostgresFlagStore(db)
		if err := fs.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate flag store", "error", err)
		}
		flags = fs

		as := auth.NewPostgresStore(db)
		if err := as.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate auth store", "error", err)
		}
		s.authMgr = auth.NewManager(as)

		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			if err := db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	} else {
		s.logger.Info("using in-memory storage (data will not persist)")
		s.profiles = identity.NewMemoryStore()
		campaignStore = campaign.NewMemoryStore()
		reportStore = reports.NewMemoryStore()
		flags = risk.NewMemoryFlagStore()
		s.authMgr = auth.NewManager(auth.NewMemoryStore())
	}

	// Wallet balance checks. On-chain by default; the in-memory checker is
	// injected by tests or used when no RPC endpoint is configured.
	if s.balances == nil {
		if cfg.RPCURL != "" {
			chain, err := identity.NewChainBalances(identity.ChainConfig{
				RPCURL:        cfg.RPCURL,
				TokenContract: cfg.TokenContract,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create chain balance checker: %w", err)
			}
			s.balances = chain
			s.logger.Info("on-chain balance checks enabled",
				"rpc", cfg.RPCURL, "token", cfg.TokenContract)
		} else {
			s.balances = identity.NewMemoryBalances()
			s.logger.Info("balance checks use in-memory ledger (demo mode)")
		}
	}

	s.identitySvc = identity.NewService(s.profiles, s.balances)

	// Spam guard with rules seeded from configuration. Runtime updates via
	// the admin API do not persist; the rules reset to these on restart.
	guard, err := spamguard.NewGuard(spamguard.Rules{
		CampaignsPerDay:          cfg.CampaignsPerDay,
		CommentsPerHour:          cfg.CommentsPerHour,
		ReportsPerDay:            cfg.ReportsPerDay,
		MinimumAccountAgeDays:    cfg.MinAccountAgeDays,
		MinimumVerificationLevel: cfg.MinVerificationLevel,
		MinimumWalletBalance:     cfg.MinWalletBalance,
	}, s.profiles, s.balances)
	if err != nil {
		return nil, fmt.Errorf("invalid spam rules: %w", err)
	}
	s.guard = guard

	s.campaignSvc = campaign.NewService(campaignStore, guard)
	s.reportSvc = reports.NewService(reportStore, campaignStore, guard)
	s.scorer = risk.NewScorer(campaignStore, s.profiles, s.reportSvc, flags)

	// Realtime hub for WebSocket streaming of moderation events
	s.realtimeHub = realtime.NewHub(s.logger)
	s.logger.Info("realtime streaming enabled")

	s.moderation = moderation.NewService(s.scorer, s.reportSvc, s.campaignSvc, guard, flags, s.realtimeHub)

	// Tracing (no-op when no collector endpoint is configured)
	shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.traceShutdown = shutdown
	}

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS
	s.router.Use(security.CORSMiddleware(s.cfg.AllowedOrigins))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPM > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time moderation events
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	// Validate :address URL params on all v1 routes (no-op when param absent).
	// API key resolution runs here too: the middleware never rejects, it only
	// attaches the caller's identity, so public report reads can return the
	// unredacted view to admins while staying open to everyone else.
	v1.Use(validation.AddressParamMiddleware(), auth.Middleware(s.authMgr))

	identityHandler := identity.NewHandler(s.identitySvc)
	campaignHandler := campaign.NewHandler(s.campaignSvc)
	reportHandler := reports.NewHandler(s.reportSvc, s.cfg.AdminSecret)
	riskHandler := risk.NewHandler(s.scorer)
	spamHandler := spamguard.NewHandler(s.guard)
	moderationHandler := moderation.NewHandler(s.moderation)

	// PUBLIC ROUTES (no auth required)
	// Discovery and read endpoints; report listings are redacted unless the
	// caller authenticates as an admin.
	identityHandler.RegisterRoutes(v1)
	campaignHandler.RegisterRoutes(v1)
	reportHandler.RegisterRoutes(v1)
	riskHandler.RegisterRoutes(v1)
	spamHandler.RegisterRoutes(v1)

	// REGISTRATION (public but returns an API key)
	v1.POST("/profiles", s.registerProfileWithAPIKey)

	// AUTH INFO (public)
	authHandler := auth.NewHandler(s.authMgr)
	v1.GET("/auth/info", authHandler.Info)

	// PROTECTED ROUTES (require API key)
	// Wallet-authenticated actions: creating campaigns, commenting, reporting.
	protected := v1.Group("")
	protected.Use(auth.RequireAuth(s.authMgr))
	{
		campaignHandler.RegisterProtectedRoutes(protected)
		spamHandler.RegisterProtectedRoutes(protected)
		moderationHandler.RegisterProtectedRoutes(protected)

		// API key management
		protected.GET("/auth/keys", authHandler.ListKeys)
		protected.POST("/auth/keys", authHandler.CreateKey)
		protected.DELETE("/auth/keys/:keyId", authHandler.RevokeKey)
	}

	// ADMIN ROUTES (require X-Admin-Secret in production; in demo mode any
	// authenticated caller passes)
	admin := v1.Group("/admin")
	admin.Use(auth.RequireAuth(s.authMgr), auth.RequireAdmin(s.cfg.AdminSecret))
	{
		identityHandler.RegisterAdminRoutes(admin)
		spamHandler.RegisterAdminRoutes(admin)
		moderationHandler.RegisterAdminRoutes(admin)
	}
}

// registerProfileWithAPIKey handles POST /v1/profiles
// This wraps profile registration to also generate and return an API key
func (s *Server) registerProfileWithAPIKey(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	req.Address = validation.SanitizeAddress(req.Address)
	if errs := validation.Validate(
		validation.Required("address", req.Address),
		validation.ValidAddress("address", req.Address),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	profile, err := s.identitySvc.Register(ctx, req.Address)
	if err != nil {
		if errors.Is(err, identity.ErrProfileExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "already_registered",
				"message": "A profile with this address is already registered",
			})
			return
		}
		s.logger.Error("failed to register profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to register profile",
		})
		return
	}

	rawKey, keyInfo, err := s.authMgr.GenerateKey(ctx, profile.Address, "Primary key")
	if err != nil {
		s.logger.Error("failed to generate API key", "error", err)
		// Profile was created but key generation failed
		c.JSON(http.StatusCreated, gin.H{
			"profile": profile,
			"warning": "Profile registered but API key generation failed. Contact support.",
		})
		return
	}

	s.logger.Info("profile registered with API key",
		"address", profile.Address,
		"keyId", keyInfo.ID,
	)

	c.JSON(http.StatusCreated, gin.H{
		"profile": profile,
		"apiKey":  rawKey,
		"keyId":   keyInfo.ID,
		"warning": "Store this API key securely. It will not be shown again.",
		"usage":   "Include 'Authorization: Bearer <apiKey>' header in requests.",
	})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "WowzaRush",
		"description": "Risk assessment and moderation for Web3 crowdfunding",
		"version":     "0.1.0",
		"chain":       "base-sepolia",
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Periodic risk refresher (keeps dashboard scores warm without requests)
	if s.cfg.RiskRecomputeInterval > 0 {
		go s.runRiskRefresher(runCtx, time.Duration(s.cfg.RiskRecomputeInterval)*time.Second)
	}

	// Export DB pool stats when Postgres is in use
	if s.db != nil {
		metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// runRiskRefresher rescans recent campaigns on a fixed interval so risk
// scores stay current even for campaigns nobody is looking at.
func (s *Server) runRiskRefresher(ctx context.Context, interval time.Duration) {
	const scanLimit = 200

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			campaigns, err := s.campaignSvc.List(ctx, scanLimit)
			if err != nil {
				s.logger.Warn("risk refresh scan failed", "error", err)
				continue
			}
			for _, c := range campaigns {
				if _, err := s.scorer.Recompute(ctx, c.ID, "periodic"); err != nil {
					s.logger.Warn("periodic risk recompute failed",
						"campaign_id", c.ID, "error", err)
				}
			}
		}
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, refresher)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush traces
	if s.traceShutdown != nil {
		if err := s.traceShutdown(ctx); err != nil {
			s.logger.Warn("trace shutdown error", "error", err)
		}
	}

	// Close chain RPC connection if one was opened
	if closer, ok := s.balances.(interface{ Close() }); ok {
		closer.Close()
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
