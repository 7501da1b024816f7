package main

import (
	"context"
	"log"
	"os"

	"pizza-storefront/internal/config"
	"pizza-storefront/internal/db"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logs.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Storage.DSN)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	version, err := migrate.Apply(ctx, pool)
	if err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	logger.Info("migrations applied", "version", version)
}
