// Package main is the entrypoint for the Roster API server.
package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/roster/roster/internal/cache"
	"github.com/roster/roster/internal/config"
	"github.com/roster/roster/internal/events"
	"github.com/roster/roster/internal/handler"
	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/middleware"
	"github.com/roster/roster/internal/repository"
	"github.com/roster/roster/internal/repository/memory"
	"github.com/roster/roster/internal/server"
	"github.com/roster/roster/internal/service"
	"github.com/roster/roster/internal/tracing"
	"github.com/roster/roster/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run wires every component and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.OTelEndpoint, cfg.ServiceName, cfg.AppEnv, logger)
	if err != nil {
		return err
	}

	recorder := metrics.NewPrometheus(cfg.ServiceName)

	var shutdowns []namedShutdown
	shutdowns = append(shutdowns, namedShutdown{"tracing", server.ShutdownFunc(shutdownTracing)})

	store, closeStore := openStore(ctx, cfg, logger)
	if closeStore != nil {
		shutdowns = append(shutdowns, namedShutdown{"database", closeStore})
	}

	opts := []service.Option{service.WithRecorder(recorder), service.WithLogger(logger)}

	var redisCheck handler.HealthChecker
	if cacheClient := openCache(ctx, cfg, logger); cacheClient != nil {
		redisCheck = cacheClient
		opts = append(opts, service.WithCache(cacheClient))
		if cfg.EventsEnabled {
			opts = append(opts, service.WithPublisher(events.NewPublisher(cacheClient.Client(), logger, recorder)))
		}
		shutdowns = append(shutdowns, namedShutdown{"redis", func(context.Context) error { return cacheClient.Close() }})
	}

	var dbCheck handler.HealthChecker
	if store != nil {
		dbCheck = store
	}

	svc := service.NewUserService(store, opts...)

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}

	security := middleware.DefaultSecurityConfig()
	security.IsDevelopment = cfg.IsDevelopment()

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Users:       handler.NewUserHandler(svc, logger),
		Page:        handler.NewPageHandler(svc, tmpl, recorder, logger),
		Health:      handler.NewHealthHandler(handler.Dependency{Name: "database", Checker: dbCheck}, handler.Dependency{Name: "redis", Checker: redisCheck}),
		Metrics:     recorder.Handler(),
		Static:      web.Static(),
		Logger:      logger,
		Security:    security,
		CORS:        cors,
		MaxBodySize: cfg.MaxRequestBodySize,
	})

	var root http.Handler = router
	if cfg.TracingEnabled() {
		root = otelhttp.NewHandler(router, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	srv := server.New(root, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageMode(),
		"cache", redisCheck != nil,
		"tracing", cfg.TracingEnabled(),
	)

	return srv.Run(ctx)
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// openStore returns the configured gateway, or nil when none is available.
// A database that cannot be reached leaves the server running degraded.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.UserStore, server.ShutdownFunc) {
	switch cfg.StorageMode() {
	case config.StorageNone:
		logger.Warn("DATABASE_URL not set; user endpoints will report the database as unavailable")
		return nil, nil
	case config.StorageMemory:
		logger.Info("using in-memory user store")
		return memory.New(), nil
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
		}
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, nil
	}
	logger.Info("connected to database")

	return repo, func(context.Context) error {
		repo.Close()
		return nil
	}
}

// openCache connects to Redis when configured. Failures disable caching and events.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) *cache.Cache {
	if cfg.RedisURL == "" {
		return nil
	}

	c, err := cache.New(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		logger.Warn("failed to connect to Redis; continuing without cache",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return nil
	}
	logger.Info("connected to Redis")
	return c
}

// initLogger builds the process logger from configuration and installs it as default.
func initLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(tracing.NewLogHandler(h)).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

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

	return passwordPattern.ReplaceAllString(parsed.String(), "password=redacted")
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
