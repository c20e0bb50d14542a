// Package seed loads a demo catalog and account for manual testing.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/importer"
	"jewelry-storefront/internal/logging"
)

//go:embed catalog.csv
var catalogCSV []byte

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "Demo1234"
)

type UserCreator interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

// Apply imports the demo catalog and creates the demo account. It is
// idempotent: products upsert by name and an existing account is kept.
func Apply(ctx context.Context, products importer.ProductWriter, users UserCreator, logger *zap.Logger) error {
	logger = logging.OrNop(logger).Named("seed")

	n, err := importer.NewCSVImporter(bytes.NewReader(catalogCSV), products, logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	_, err = users.Create(ctx, domain.User{
		Email:        DemoEmail,
		PasswordHash: string(hash),
		FirstName:    "Demo",
		LastName:     "Shopper",
		Role:         domain.RoleCustomer,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Info("demo user already present", zap.String("email", DemoEmail))
	case err != nil:
		return fmt.Errorf("create demo user: %w", err)
	default:
		logger.Info("demo user created", zap.String("email", DemoEmail))
	}

	logger.Info("seed applied", zap.Int("products", n))
	return nil
}
