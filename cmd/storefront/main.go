package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jewelry-storefront/internal/checkout"
	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/logging"
	"jewelry-storefront/internal/querycache"
	"jewelry-storefront/internal/session"
	"jewelry-storefront/internal/storefront"
)

var (
	apiURL  string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
	client *storefront.Client
	orders *checkout.Orchestrator
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Browse the jewelry storefront, manage a cart and place orders",
	Long: `storefront is a terminal client of the storefront API.

Sign in with "storefront login", add items with "storefront cart add",
then place an order with "storefront checkout <address-id>".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func init() {
	config.LoadDotEnv()
	cfg := config.ClientFromEnv()

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", cfg.APIBaseURL, "Storefront API base URL (or set API_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", cfg.HTTPTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(productsCmd, productCmd, searchCmd, freshCmd, colorsCmd, categoriesCmd, categoryCmd)
	rootCmd.AddCommand(cartCmd, addressCmd, checkoutCmd, ordersCmd)
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, forgotCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() error {
	cfg := config.ClientFromEnv()
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	var err error
	logger, err = logging.New("storefront-cli", level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	sess := session.New(session.NewFileStorage(cfg.SessionFile), logger)
	client, err = storefront.New(apiURL, sess,
		storefront.WithHTTPClient(&http.Client{Timeout: timeout}),
		storefront.WithLogger(logger),
		storefront.WithCacheOptions(
			querycache.WithRevalidateOnHit(cfg.RevalidateOnHit),
			querycache.WithKeepUnusedFor(cfg.KeepUnusedFor),
		),
	)
	if err != nil {
		return err
	}
	orders = checkout.New(client, client.Cache(), logger)
	return nil
}

func teardown() {
	if client != nil {
		client.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// commandContext is cancelled on SIGINT/SIGTERM or after the request timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
