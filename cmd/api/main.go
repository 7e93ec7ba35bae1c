// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Taskora HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start the session purge cycle.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/taskora/internal/api"
	"github.com/taibuivan/taskora/internal/platform/config"
	"github.com/taibuivan/taskora/internal/platform/constants"
	"github.com/taibuivan/taskora/internal/platform/middleware"
	"github.com/taibuivan/taskora/internal/platform/migration"
	pgstore "github.com/taibuivan/taskora/internal/platform/postgres"
	redisstore "github.com/taibuivan/taskora/internal/platform/redis"
	"github.com/taibuivan/taskora/internal/platform/sec"
	"github.com/taibuivan/taskora/internal/todos"
	"github.com/taibuivan/taskora/internal/users/account"
	"github.com/taibuivan/taskora/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize token service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	// Lifetime context shared by background loops; cancelled on shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewRefreshTokenRepository(pool)
	denylist := auth.NewDenylistStore(rdb)
	mailer := &auth.LogMailer{Logger: log}

	authService := auth.NewService(userRepository, sessionRepository, denylist, tokenService, mailer, auth.Config{
		AccessTokenTTL:   cfg.AccessTokenTTL,
		RefreshTokenTTL:  cfg.RefreshTokenTTL,
		EmailTokenTTL:    cfg.EmailTokenTTL,
		SessionRetention: cfg.SessionRetention,
	})
	authHandler := auth.NewHandler(authService)

	sessionViews := account.NewSessionViewRepository(pool)
	accountService := account.NewService(userRepository, sessionViews)
	profileLimiter := middleware.NewIPRateLimiter(appCtx, constants.ProfileRateLimitRPS, constants.ProfileRateLimitBurst)
	accountHandler := account.NewHandler(accountService, authService, profileLimiter)

	todoRepository := todos.NewPostgresRepository(pool)
	todoService := todos.NewService(todoRepository)
	todoHandler := todos.NewHandler(todoService)

	// ── 9. Session Purge Cycle ────────────────────────────────────────────
	go runPurgeCycle(appCtx, authService, cfg.PurgeInterval, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Todos:     todoHandler,
	}

	server := api.NewServer(appCtx, cfg, log, authService, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background loops before draining requests.
	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// runPurgeCycle periodically removes refresh sessions that can never be
// redeemed again. It exits when the application context is cancelled.
func runPurgeCycle(ctx context.Context, authService *auth.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(ctx, time.Minute)
			removed, err := authService.PurgeStaleSessions(purgeCtx)
			cancel()

			if err != nil {
				log.Error("session_purge_failed", slog.Any("error", err))
				continue
			}
			log.Info("session_purge_completed", slog.Int64("removed", removed))
		case <-ctx.Done():
			return
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
