package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/veritas-sms/veritas-sms/internal/app"
	"github.com/veritas-sms/veritas-sms/internal/backfill"
	"github.com/veritas-sms/veritas-sms/internal/identity"
	"github.com/veritas-sms/veritas-sms/internal/observability"
	"github.com/veritas-sms/veritas-sms/internal/platform/cache"
	"github.com/veritas-sms/veritas-sms/internal/platform/db"
	"github.com/veritas-sms/veritas-sms/internal/rbac"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()

	identityRepo := identity.NewRepository(dbpool)
	resolver := identity.NewResolver(identityRepo, cfg.OwnerEmail, logger)
	gate := identity.NewLicenseGate(resolver, cfg.OwnerLicenseKey)
	issuer := identity.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	identityService := identity.NewService(gate, issuer, identityRepo, logger, metrics)
	identityHandler := identity.NewHandler(logger, identityService)
	authenticator := identity.NewAuthenticator(issuer)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacCache := rbac.NewCache(redisClient, cfg.RBACCacheTTL)
	rbacService := rbac.NewService(rbacRepo, rbacCache, logger, metrics)
	rbacHandler := rbac.NewHandler(logger, rbacService)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	backfillRepo := backfill.NewRepository(dbpool)
	backfillService := backfill.NewService(backfillRepo, logger, metrics)
	backfillHandler := backfill.NewHandler(logger, backfillService, queueClient)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		IdentityHandler: identityHandler,
		Authenticator:   authenticator,
		RBACHandler:     rbacHandler,
		RBACMiddleware:  rbacMiddleware,
		BackfillHandler: backfillHandler,
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
