package cart

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository stores cart rows per user. Rows reference products; prices are
// never copied into the cart.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID string, in domain.AddToCartInput) error
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Delete(ctx context.Context, userID, itemID string) error
}
