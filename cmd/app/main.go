// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directory-pass/internal/config"
	"directory-pass/internal/domain/ports/adapter"
	pg "directory-pass/internal/infra/db/postgres"
	gw "directory-pass/internal/infra/gateway"
	"directory-pass/internal/infra/logging"
	"directory-pass/internal/infra/metrics"
	red "directory-pass/internal/infra/redis"
	"directory-pass/internal/infra/sched"
	"directory-pass/internal/infra/web"
	"directory-pass/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop-friendly)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	dedup := red.NewEventDedup(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	passRepo := pg.NewAccessPassRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway ----
	var gateway adapter.MobileMoneyGateway
	if cfg.Gateway.Noop {
		gateway = gw.NewNoopGateway()
		logger.Warn().Msg("using noop payment gateway; all cash-ins auto-succeed")
	} else {
		gateway = gw.NewMobileMoneyGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	}

	// ---- Use cases ----
	passUC := usecase.NewAccessPassUseCase(passRepo, txManager, locker, logger)
	purchaseUC := usecase.NewPurchaseUseCase(gateway, cfg.Pass, cfg.Runtime.Dev, logger)
	activationUC := usecase.NewActivationUseCase(gateway, passUC, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(passUC, purchaseUC, activationUC, web.Options{
		PassConfig:    cfg.Pass,
		APIKey:        cfg.Admin.APIKey,
		AdminPassword: cfg.Admin.LoginPassword,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Auth:          auth,
		Dedup:         dedup,
	}, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Expiry worker ----
	expiry := sched.NewExpiryWorker(time.Minute, passUC, logger)
	go func() {
		if err := expiry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("expiry worker stopped")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
