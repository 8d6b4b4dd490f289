// Package main is the entrypoint for the Gatekey API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gatekey/gatekey/internal/audit"
	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/cache"
	"github.com/gatekey/gatekey/internal/config"
	"github.com/gatekey/gatekey/internal/handler"
	"github.com/gatekey/gatekey/internal/metrics"
	"github.com/gatekey/gatekey/internal/middleware"
	"github.com/gatekey/gatekey/internal/repository"
	"github.com/gatekey/gatekey/internal/server"
	"github.com/gatekey/gatekey/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize credential machinery
	hasher, err := auth.NewHasher(cfg.HasherParams())
	if err != nil {
		logger.Error("failed to initialize password hasher", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.SessionSigningSecret), cfg.SessionTokenTTL)
	if err != nil {
		logger.Error("failed to initialize token issuer", "error", err)
		os.Exit(1)
	}

	// Initialize services
	metricsRecorder := metrics.NewNoop()
	authService := service.NewAuthService(repo, hasher, tokens, cacheClient, metricsRecorder)

	// Audit trail: publisher feeds a Redis stream, the worker drains it
	// into Postgres in batches.
	var auditPublisher *audit.Publisher
	var auditWorker *audit.Worker
	if cfg.AuditEnabled {
		auditPublisher = audit.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
		auditRepo := repository.NewAuditEventRepository(repo)
		auditWorker = audit.NewWorker(cacheClient.Client(), auditRepo, logger, audit.NewConsumerID(), metricsRecorder)
		auditWorker.SetBatchSize(cfg.AuditBatchSize)
		auditWorker.SetBlockTimeout(cfg.AuditBlockTimeout)
		auditWorker.SetClaimInterval(cfg.AuditClaimInterval)
		auditWorker.SetClaimIdle(cfg.AuditClaimIdle)
		auditWorker.SetMetricsInterval(cfg.AuditMetricsInterval)
	}

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(authService, logger, auditPublisher)
	profileHandler := handler.NewProfileHandler(authService, logger)

	r := setupRouter(h, healthHandler, authHandler, profileHandler, authService, cacheClient, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	if auditWorker != nil {
		workerCtx, cancelWorker := context.WithCancel(ctx)
		defer cancelWorker()
		go func() {
			if err := auditWorker.Run(workerCtx); err != nil && err != context.Canceled {
				logger.Error("audit worker exited", "error", err)
			}
		}()
		srv.OnShutdown("audit worker", auditWorker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	authService *service.AuthService,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	sessionCfg := middleware.SessionConfig{
		Logger: logger,
		Auth:   authService,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      logger,
		Cache:       cacheClient,
		AuthEnabled: cfg.RateLimitAuthEnabled,
		AuthRPM:     cfg.RateLimitAuthRPM,
		AuthBurst:   cfg.RateLimitAuthBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints: rate limited per IP, no session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth(rateLimitCfg))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Session-scoped endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/session", authHandler.Session)
			r.Get("/profile", profileHandler.Get)
			r.Patch("/profile", profileHandler.Update)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
