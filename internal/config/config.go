// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/gatekey/gatekey/internal/auth"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis): token blocklist and login rate limiting
	RedisURL string `env:"REDIS_URL,required"`

	// Session tokens. The signing secret has no default on purpose:
	// the process must refuse to start without one.
	SessionSigningSecret string        `env:"SESSION_SIGNING_SECRET,required,unset"`
	SessionTokenTTL      time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"168h"`

	// Password hashing work factor (Argon2id)
	PasswordHashTime    uint32 `env:"PASSWORD_HASH_TIME" envDefault:"3"`
	PasswordHashMemory  uint32 `env:"PASSWORD_HASH_MEMORY_KB" envDefault:"65536"`
	PasswordHashThreads uint8  `env:"PASSWORD_HASH_THREADS" envDefault:"4"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for credential endpoints (per client IP)
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPM     int  `env:"RATE_LIMIT_AUTH_RPM" envDefault:"30"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`

	// Audit trail: auth events published to a Redis stream and persisted
	// by a background worker.
	AuditEnabled         bool          `env:"AUDIT_ENABLED" envDefault:"true"`
	AuditBatchSize       int           `env:"AUDIT_BATCH_SIZE" envDefault:"500"`
	AuditBlockTimeout    time.Duration `env:"AUDIT_BLOCK_TIMEOUT" envDefault:"5s"`
	AuditClaimInterval   time.Duration `env:"AUDIT_CLAIM_INTERVAL" envDefault:"10s"`
	AuditClaimIdle       time.Duration `env:"AUDIT_CLAIM_IDLE" envDefault:"30s"`
	AuditMetricsInterval time.Duration `env:"AUDIT_METRICS_INTERVAL" envDefault:"5s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://market.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasherParams returns the configured Argon2id work factor.
func (c *Config) HasherParams() auth.HasherParams {
	return auth.HasherParams{
		Time:    c.PasswordHashTime,
		Memory:  c.PasswordHashMemory,
		Threads: c.PasswordHashThreads,
	}
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks constraints env tags cannot express.
// Called at startup; a failure here must abort the process.
func (c *Config) Validate() error {
	if len(c.SessionSigningSecret) < auth.MinSigningSecretLen {
		return fmt.Errorf("SESSION_SIGNING_SECRET must be at least %d bytes", auth.MinSigningSecretLen)
	}
	if c.SessionTokenTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL must be positive, got %s", c.SessionTokenTTL)
	}
	if c.PasswordHashTime == 0 || c.PasswordHashMemory == 0 || c.PasswordHashThreads == 0 {
		return fmt.Errorf("password hash parameters must be non-zero")
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
