package order

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository persists orders. Every call is scoped to the owning user.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Order, error)
	// PlaceFromCart turns the user's cart into a PENDING order, decrementing
	// stock and emptying the cart in the same transaction.
	PlaceFromCart(ctx context.Context, userID, addressID string) (*domain.Order, error)
	// DeletePending removes a PENDING order and releases its stock.
	DeletePending(ctx context.Context, userID, id string) error
	// Transition moves an order to next if the status table allows it.
	Transition(ctx context.Context, userID, id string, next domain.OrderStatus) (*domain.Order, error)
}
