// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hakudoge53/candilingo-sub001/internal/config"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/api"
	pg "github.com/hakudoge53/candilingo-sub001/internal/infra/db/postgres"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/logging"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/metrics"
	red "github.com/hakudoge53/candilingo-sub001/internal/infra/redis"
	"github.com/hakudoge53/candilingo-sub001/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 0)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	codeRepo := pg.NewReferralCodeRepo(pool)
	ledgerRepo := pg.NewRedemptionRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// ---- Use cases ----
	referralUC := usecase.NewReferralUseCase(codeRepo, ledgerRepo, userRepo, logger).
		WithGrantTier(model.MembershipTier(cfg.Referral.GrantTier))
	codeUC := usecase.NewCodeUseCase(codeRepo, ledgerRepo, logger)

	// ---- HTTP server ----
	srv := api.NewServer(referralUC, codeUC, rateLimiter, cfg, logger)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		logger.Info().Msg("shutdown requested")
		cancel()
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := srv.Start(ctx, addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}
