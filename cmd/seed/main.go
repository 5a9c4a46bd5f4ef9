package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/hakudoge53/candilingo-sub001/internal/config"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
	pg "github.com/hakudoge53/candilingo-sub001/internal/infra/db/postgres"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/logging"
	"github.com/hakudoge53/candilingo-sub001/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeRepo := pg.NewReferralCodeRepo(pool)
	ledgerRepo := pg.NewRedemptionRepo(pool)
	codeUC := usecase.NewCodeUseCase(codeRepo, ledgerRepo, logger)

	// If codes already exist, do nothing
	codes, err := codeUC.List(ctx)
	if err != nil {
		log.Fatalf("list codes: %v", err)
	}
	if len(codes) > 0 {
		fmt.Printf("%d codes already present. No changes.\n", len(codes))
		for _, c := range codes {
			fmt.Printf("  - %s (months=%d, used=%d, limit=%v, active=%v)\n",
				c.Code, c.DurationMonths, c.UsageCount, c.UsageLimit, c.IsActive)
		}
		return
	}

	// Seed a few sample codes for testing the redemption flow.
	// All-or-nothing: a partial seed is worse than none.
	hundred := 100
	seed := []*model.ReferralCode{
		{ID: uuid.NewString(), Code: "WELCOME2026", IsActive: true, DurationMonths: 3},
		{ID: uuid.NewString(), Code: "LAUNCH-TEAM", IsActive: true, DurationMonths: 6, UsageLimit: &hundred},
		{ID: uuid.NewString(), Code: "PARTNER-TRIAL", IsActive: true, DurationMonths: 1, UsageLimit: &hundred},
	}

	tm := pg.NewTxManager(pool)
	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, c := range seed {
			if err := codeRepo.Save(ctx, tx, c); err != nil {
				return fmt.Errorf("save code %q: %w", c.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	for _, c := range seed {
		fmt.Printf("seeded: %s (id=%s, months=%d)\n", c.Code, c.ID, c.DurationMonths)
	}

	fmt.Println("✅ Seeding complete.")
}
