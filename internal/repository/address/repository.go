package address

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository persists addresses. Every call is scoped to the owning user.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	Create(ctx context.Context, userID string, in domain.AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in domain.AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
}
