package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/querycache"
)

type fakeAPI struct {
	addresses   []domain.Address
	placeErr    error
	placed      []string
	deleted     []string
	statusCalls []domain.OrderStatus
}

func (f *fakeAPI) AddressesQuery() querycache.Query[[]domain.Address] {
	return querycache.Query[[]domain.Address]{
		Endpoint: "getAddresses",
		Fetch:    func(context.Context) ([]domain.Address, error) { return f.addresses, nil },
		Tags:     func([]domain.Address, error) []querycache.Tag { return []querycache.Tag{querycache.TypeTag("Address")} },
	}
}

func (f *fakeAPI) PlaceOrderMutation(addressID string) querycache.Mutation[domain.Order] {
	return querycache.Mutation[domain.Order]{
		Name: "placeOrder",
		Run: func(context.Context) (domain.Order, error) {
			f.placed = append(f.placed, addressID)
			if f.placeErr != nil {
				return domain.Order{}, f.placeErr
			}
			return domain.Order{ID: "o1", AddressID: addressID, Status: domain.OrderPending, TotalAmount: decimal.NewFromInt(250)}, nil
		},
		Invalidates: func(domain.Order) []querycache.Tag {
			return []querycache.Tag{querycache.TypeTag("Order"), querycache.TypeTag("Cart")}
		},
	}
}

func (f *fakeAPI) DeleteOrderMutation(orderID string) querycache.Mutation[string] {
	return querycache.Mutation[string]{
		Name: "deleteOrder",
		Run: func(context.Context) (string, error) {
			f.deleted = append(f.deleted, orderID)
			return "deleted", nil
		},
	}
}

func (f *fakeAPI) UpdateOrderStatusMutation(orderID string, status domain.OrderStatus) querycache.Mutation[domain.Order] {
	return querycache.Mutation[domain.Order]{
		Name: "updateOrderStatus",
		Run: func(context.Context) (domain.Order, error) {
			f.statusCalls = append(f.statusCalls, status)
			return domain.Order{ID: orderID, Status: status}, nil
		},
	}
}

func cartQuery() querycache.Query[[]domain.CartLine] {
	return querycache.Query[[]domain.CartLine]{
		Endpoint: "getCart",
		Fetch: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{{ID: "c1", ProductID: "p1", Quantity: 2}}, nil
		},
		Tags: func([]domain.CartLine, error) []querycache.Tag { return []querycache.Tag{querycache.TypeTag("Cart")} },
	}
}

func TestPlaceOrderValidatesLocally(t *testing.T) {
	cache := querycache.New()
	defer cache.Close()
	api := &fakeAPI{addresses: []domain.Address{{ID: "a1"}}}
	o := New(api, cache, nil)

	_, err := o.PlaceOrder(context.Background(), "")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = o.PlaceOrder(context.Background(), "someone-elses")
	require.True(t, errors.As(err, &verr))
	require.Empty(t, api.placed)
}

func TestPlaceOrderInvalidatesCart(t *testing.T) {
	cache := querycache.New()
	defer cache.Close()
	api := &fakeAPI{addresses: []domain.Address{{ID: "a1"}, {ID: "a2"}}}
	o := New(api, cache, nil)

	_, err := querycache.Fetch(context.Background(), cache, cartQuery())
	require.NoError(t, err)

	order, err := o.PlaceOrder(context.Background(), "a2")
	require.NoError(t, err)
	require.Equal(t, "o1", order.ID)
	require.Equal(t, []string{"a2"}, api.placed)

	r, ok := querycache.Peek(cache, cartQuery())
	require.True(t, ok)
	require.True(t, r.Stale)
}

func TestPlaceOrderFailureLeavesCacheAlone(t *testing.T) {
	cache := querycache.New()
	defer cache.Close()
	api := &fakeAPI{addresses: []domain.Address{{ID: "a1"}}, placeErr: errors.New("cart is empty")}
	o := New(api, cache, nil)

	_, err := querycache.Fetch(context.Background(), cache, cartQuery())
	require.NoError(t, err)

	_, err = o.PlaceOrder(context.Background(), "a1")
	require.ErrorContains(t, err, "cart is empty")
	r, _ := querycache.Peek(cache, cartQuery())
	require.False(t, r.Stale)
}

func TestCancelOrder(t *testing.T) {
	cache := querycache.New()
	defer cache.Close()
	api := &fakeAPI{}
	o := New(api, cache, nil)
	ctx := context.Background()

	outcome, err := o.CancelOrder(ctx, domain.Order{ID: "o1", Status: domain.OrderPending})
	require.NoError(t, err)
	require.Equal(t, Deleted, outcome)
	require.Equal(t, []string{"o1"}, api.deleted)

	for _, st := range []domain.OrderStatus{domain.OrderConfirmed, domain.OrderPaid} {
		outcome, err = o.CancelOrder(ctx, domain.Order{ID: "o2", Status: st})
		require.NoError(t, err)
		require.Equal(t, Cancelled, outcome)
	}
	require.Equal(t, []domain.OrderStatus{domain.OrderCancelled, domain.OrderCancelled}, api.statusCalls)

	for _, st := range []domain.OrderStatus{domain.OrderCancelled, domain.OrderRefunded} {
		_, err = o.CancelOrder(ctx, domain.Order{ID: "o3", Status: st})
		require.ErrorIs(t, err, ErrNotCancellable)
	}
	require.Len(t, api.deleted, 1)
	require.Len(t, api.statusCalls, 2)
}
