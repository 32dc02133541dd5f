package main

import (
	"context"
	"flag"
	"log"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/database/migration"
	"job-tracker/internal/database/postgres"
	"job-tracker/internal/database/seeder"
	"job-tracker/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	user := flag.String("user", "", "owner of the seeded applications (uuid)")
	count := flag.Int("count", 24, "number of applications to insert")
	flag.Parse()

	userID, err := uuid.Parse(*user)
	if err != nil {
		log.Fatalf("invalid -user: %v", err)
	}
	if *count <= 0 {
		log.Fatalf("-count must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.App.AppName+"-seed", cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.Database, zl)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = pool.Close() }()

	if err := (migration.Runner{Logger: zl}).Run(ctx, pool); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	r := seeder.Runner{Seeders: seeder.Defaults(userID, *count, time.Now()), Logger: zl}
	if err := r.Run(ctx, pool); err != nil {
		zl.Fatal("seed", zap.Error(err))
	}
	zl.Info("seed complete", zap.String("user_id", userID.String()), zap.Int("count", *count))
}
