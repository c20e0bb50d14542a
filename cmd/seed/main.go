package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/logging"
	productrepo "jewelry-storefront/internal/repository/product"
	userrepo "jewelry-storefront/internal/repository/user"
	"jewelry-storefront/internal/seed"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New("storefront-seed", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	err = seed.Apply(ctx, productrepo.NewPostgres(pool, logger), userrepo.NewPostgres(pool, logger), logger)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	fmt.Printf("Seeded demo catalog; sign in as %s / %s\n", seed.DemoEmail, seed.DemoPassword)
}
