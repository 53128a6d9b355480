// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Blockchain settings (wallet balance checks for the spam guard)
	RPCURL        string
	ChainID       int64
	TokenContract string // ERC-20 token used for minimum-balance checks

	// Security
	AdminSecret  string // X-Admin-Secret for admin-only moderation operations
	RateLimitRPM int    // per-IP request rate limit

	// Spam prevention defaults (the rules singleton resets to these at startup)
	CampaignsPerDay       int
	CommentsPerHour       int
	ReportsPerDay         int
	MinAccountAgeDays     int
	MinVerificationLevel  int
	MinWalletBalance      string
	AllowedOrigins        []string
	OTLPEndpoint          string // OpenTelemetry collector; tracing disabled when empty
	RiskRecomputeInterval int    // seconds between periodic risk refreshes (0 disables)
}

// Base Sepolia defaults
const (
	DefaultRPCURL        = "https://sepolia.base.org"
	DefaultChainID       = 84532                                        // Base Sepolia
	DefaultTokenContract = "0x036CbD53842c5426634e7929541eC2318f3dCF7e" // Base Sepolia USDC
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultRateLimit     = 120
)

// Default spam-prevention rules (mirrored by spamguard.DefaultRules).
const (
	DefaultCampaignsPerDay      = 3
	DefaultCommentsPerHour      = 20
	DefaultReportsPerDay        = 10
	DefaultMinAccountAgeDays    = 2
	DefaultMinVerificationLevel = 1
	DefaultMinWalletBalance     = "0.01"
)

// Load reads configuration from environment variables.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", DefaultPort),
		Env:                   getEnv("ENV", DefaultEnv),
		LogLevel:              getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:           os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		RPCURL:                getEnv("RPC_URL", DefaultRPCURL),
		ChainID:               getEnvInt64("CHAIN_ID", DefaultChainID),
		TokenContract:         getEnv("TOKEN_CONTRACT", DefaultTokenContract),
		AdminSecret:           os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:          int(getEnvInt64("RATE_LIMIT_RPM", int64(DefaultRateLimit))),
		CampaignsPerDay:       int(getEnvInt64("SPAM_CAMPAIGNS_PER_DAY", DefaultCampaignsPerDay)),
		CommentsPerHour:       int(getEnvInt64("SPAM_COMMENTS_PER_HOUR", DefaultCommentsPerHour)),
		ReportsPerDay:         int(getEnvInt64("SPAM_REPORTS_PER_DAY", DefaultReportsPerDay)),
		MinAccountAgeDays:     int(getEnvInt64("SPAM_MIN_ACCOUNT_AGE_DAYS", DefaultMinAccountAgeDays)),
		MinVerificationLevel:  int(getEnvInt64("SPAM_MIN_VERIFICATION_LEVEL", DefaultMinVerificationLevel)),
		MinWalletBalance:      getEnv("SPAM_MIN_WALLET_BALANCE", DefaultMinWalletBalance),
		AllowedOrigins:        []string{getEnv("ALLOWED_ORIGIN", "*")},
		OTLPEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RiskRecomputeInterval: int(getEnvInt64("RISK_RECOMPUTE_INTERVAL", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are coherent.
func (c *Config) Validate() error {
	if c.MinVerificationLevel < 0 || c.MinVerificationLevel > 3 {
		return fmt.Errorf("SPAM_MIN_VERIFICATION_LEVEL must be between 0 and 3")
	}
	if c.MinAccountAgeDays < 0 {
		return fmt.Errorf("SPAM_MIN_ACCOUNT_AGE_DAYS must not be negative")
	}
	if c.CampaignsPerDay < 0 || c.CommentsPerHour < 0 || c.ReportsPerDay < 0 {
		return fmt.Errorf("spam rate limits must not be negative")
	}
	if c.RPCURL == "" && c.IsProduction() {
		return fmt.Errorf("RPC_URL is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
