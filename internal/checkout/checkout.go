// Package checkout places and withdraws orders on top of the query cache.
// Nothing is recorded locally: order state is whatever the server reports
// after the mutation invalidates the order list.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
	"jewelry-storefront/internal/querycache"
)

// ErrNotCancellable is returned for orders already cancelled or refunded.
var ErrNotCancellable = errors.New("order can no longer be cancelled")

// API builds the reads and writes checkout needs.
type API interface {
	AddressesQuery() querycache.Query[[]domain.Address]
	PlaceOrderMutation(addressID string) querycache.Mutation[domain.Order]
	DeleteOrderMutation(orderID string) querycache.Mutation[string]
	UpdateOrderStatusMutation(orderID string, status domain.OrderStatus) querycache.Mutation[domain.Order]
}

type Orchestrator struct {
	api    API
	cache  *querycache.Cache
	logger *zap.Logger
}

func New(api API, cache *querycache.Cache, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{api: api, cache: cache, logger: logging.OrNop(logger)}
}

// Addresses returns the addresses an order can ship to.
func (o *Orchestrator) Addresses(ctx context.Context) ([]domain.Address, error) {
	return querycache.Fetch(ctx, o.cache, o.api.AddressesQuery())
}

// PlaceOrder orders the server cart for delivery to addressID, which must
// be one of the user's addresses.
func (o *Orchestrator) PlaceOrder(ctx context.Context, addressID string) (domain.Order, error) {
	if addressID == "" {
		return domain.Order{}, domain.Invalid("addressId", "select a delivery address")
	}
	addresses, err := o.Addresses(ctx)
	if err != nil {
		return domain.Order{}, errors.Wrap(err, "load addresses")
	}
	if !containsAddress(addresses, addressID) {
		return domain.Order{}, domain.Invalid("addressId", "unknown address")
	}

	order, err := querycache.Mutate(ctx, o.cache, o.api.PlaceOrderMutation(addressID))
	if err != nil {
		o.logger.Warn("place order failed", zap.String("address_id", addressID), zap.Error(err))
		return domain.Order{}, errors.Wrap(err, "place order")
	}
	o.logger.Info("order placed", zap.String("order_id", order.ID), zap.String("total", order.TotalAmount.String()))
	return order, nil
}

// Outcome says how CancelOrder withdrew an order.
type Outcome string

const (
	Deleted   Outcome = "deleted"
	Cancelled Outcome = "cancelled"
)

// CancelOrder withdraws order: a pending order is deleted, a confirmed or
// paid one is moved to CANCELLED. Cancelled and refunded orders fail
// locally without a request.
func (o *Orchestrator) CancelOrder(ctx context.Context, order domain.Order) (Outcome, error) {
	if order.ID == "" {
		return "", domain.Invalid("orderId", "required")
	}
	switch {
	case order.Status.Deletable():
		if _, err := querycache.Mutate(ctx, o.cache, o.api.DeleteOrderMutation(order.ID)); err != nil {
			return "", errors.Wrap(err, "delete order")
		}
		return Deleted, nil
	case order.Status.Cancellable():
		if _, err := querycache.Mutate(ctx, o.cache, o.api.UpdateOrderStatusMutation(order.ID, domain.OrderCancelled)); err != nil {
			return "", errors.Wrap(err, "cancel order")
		}
		return Cancelled, nil
	default:
		return "", ErrNotCancellable
	}
}

func containsAddress(addresses []domain.Address, id string) bool {
	for _, a := range addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}
