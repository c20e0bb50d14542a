package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/httpserver"
	"jewelry-storefront/internal/logging"
	addressrepo "jewelry-storefront/internal/repository/address"
	cartrepo "jewelry-storefront/internal/repository/cart"
	categoryrepo "jewelry-storefront/internal/repository/category"
	orderrepo "jewelry-storefront/internal/repository/order"
	productrepo "jewelry-storefront/internal/repository/product"
	"jewelry-storefront/internal/repository/resetcode"
	tokenrepo "jewelry-storefront/internal/repository/token"
	userrepo "jewelry-storefront/internal/repository/user"
	addresssvc "jewelry-storefront/internal/service/address"
	cartsvc "jewelry-storefront/internal/service/cart"
	categorysvc "jewelry-storefront/internal/service/category"
	ordersvc "jewelry-storefront/internal/service/order"
	productsvc "jewelry-storefront/internal/service/product"
	usersvc "jewelry-storefront/internal/service/user"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New("storefront-api", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer dbpool.Close()

	codes, checks, closeCodes, err := resetCodeStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCodes()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:  productsvc.New(productRepo, cfg.FreshDropsLimit),
		CategorySvc: categorysvc.New(categoryRepo),
		CartSvc:     cartsvc.New(cartRepo),
		AddressSvc:  addresssvc.New(addressRepo),
		OrderSvc:    ordersvc.New(orderRepo, logger),
		UserSvc: usersvc.New(userRepo, tokenRepo, codes,
			usersvc.WithAccessTTL(cfg.AccessTokenTTL),
			usersvc.WithLogger(logger),
		),
	}, cfg.CORSOrigins, checks...)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// resetCodeStore keeps password reset codes in Redis when REDIS_ADDR is set,
// in process memory otherwise. A Redis store is also a readiness check.
func resetCodeStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (resetcode.Store, []httpserver.ReadinessCheck, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, reset codes are kept in memory")
		return resetcode.NewMemory(), nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("reset codes stored in redis", zap.String("addr", cfg.RedisAddr))
	check := httpserver.ReadinessCheck{
		Name: "redis",
		Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	return resetcode.NewRedis(rdb), []httpserver.ReadinessCheck{check}, func() { _ = rdb.Close() }, nil
}
