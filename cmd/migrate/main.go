package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/logging"
	"jewelry-storefront/internal/migrate"
)

func main() {
	var (
		down    bool
		steps   int
		version bool
	)
	flag.BoolVar(&down, "down", false, "Roll migrations back instead of applying them")
	flag.IntVar(&steps, "steps", 0, "Number of migrations to roll back with -down (0 means all)")
	flag.BoolVar(&version, "version", false, "Print the current schema version and exit")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New("storefront-migrate", cfg.LogLevel)
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

	switch {
	case version:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatal("read version", zap.Error(err))
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
	case down:
		if err := migrate.Rollback(ctx, pool, steps); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", steps))
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}
}
