package storefront

import (
	"context"
	"net/http"
	"net/url"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/querycache"
	"jewelry-storefront/internal/transport"
)

var addressTags = []querycache.Tag{querycache.TypeTag(TagAddress)}

// Placing, deleting and cancelling orders move stock.
var orderTags = []querycache.Tag{querycache.TypeTag(TagOrder), querycache.TypeTag(TagProducts)}

// AddressesQuery lists the addresses of the signed-in user.
func (c *Client) AddressesQuery() querycache.Query[[]domain.Address] {
	return querycache.Query[[]domain.Address]{
		Endpoint: "getAddresses",
		Fetch: func(ctx context.Context) ([]domain.Address, error) {
			var out api.AddressListResponse
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/address/getUseraddress"}, &out)
			if out.AllAddress == nil && err == nil {
				out.AllAddress = []domain.Address{}
			}
			return out.AllAddress, err
		},
		Tags: func([]domain.Address, error) []querycache.Tag { return addressTags },
	}
}

func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	as, err := querycache.Fetch(ctx, c.cache, c.AddressesQuery())
	return as, wrap(err, "list addresses")
}

// AddAddress validates in locally before sending it.
func (c *Client) AddAddress(ctx context.Context, in domain.AddressInput) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	m := querycache.Mutation[domain.Address]{
		Name: "addAddress",
		Run: func(ctx context.Context) (domain.Address, error) {
			var out domain.Address
			_, err := c.http.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/api/address/add", Body: in}, &out)
			return out, err
		},
		Invalidates: func(domain.Address) []querycache.Tag { return addressTags },
	}
	a, err := querycache.Mutate(ctx, c.cache, m)
	return a, wrap(err, "add address")
}

func (c *Client) UpdateAddress(ctx context.Context, id string, in domain.AddressInput) (domain.Address, error) {
	if id == "" {
		return domain.Address{}, domain.Invalid("addressId", "required")
	}
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	m := querycache.Mutation[domain.Address]{
		Name: "updateAddress",
		Run: func(ctx context.Context) (domain.Address, error) {
			var out domain.Address
			req := transport.Request{Method: http.MethodPut, Path: "/api/address/update/" + url.PathEscape(id), Body: in}
			_, err := c.http.Do(ctx, req, &out)
			return out, err
		},
		Invalidates: func(domain.Address) []querycache.Tag { return addressTags },
	}
	a, err := querycache.Mutate(ctx, c.cache, m)
	return a, wrap(err, "update address")
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	if id == "" {
		return domain.Invalid("addressId", "required")
	}
	m := querycache.Mutation[api.AddressMessage]{
		Name: "deleteAddress",
		Run: func(ctx context.Context) (api.AddressMessage, error) {
			var out api.AddressMessage
			_, err := c.http.Do(ctx, transport.Request{Method: http.MethodDelete, Path: "/api/address/delete/" + url.PathEscape(id)}, &out)
			return out, err
		},
		Invalidates: func(api.AddressMessage) []querycache.Tag { return addressTags },
	}
	_, err := querycache.Mutate(ctx, c.cache, m)
	return wrap(err, "delete address")
}

// OrdersQuery lists the orders of the signed-in user.
func (c *Client) OrdersQuery() querycache.Query[[]domain.Order] {
	return querycache.Query[[]domain.Order]{
		Endpoint: "getOrders",
		Fetch: func(ctx context.Context) ([]domain.Order, error) {
			var out api.OrdersResponse
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/order/getorders"}, &out)
			if out.Orders == nil && err == nil {
				out.Orders = []domain.Order{}
			}
			return out.Orders, err
		},
		Tags: func([]domain.Order, error) []querycache.Tag { return orderTags },
	}
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	orders, err := querycache.Fetch(ctx, c.cache, c.OrdersQuery())
	return orders, wrap(err, "list orders")
}

// PlaceOrderMutation places an order from the server cart. Success
// invalidates orders and the cart, which the server has emptied.
func (c *Client) PlaceOrderMutation(addressID string) querycache.Mutation[domain.Order] {
	return querycache.Mutation[domain.Order]{
		Name: "placeOrder",
		Run: func(ctx context.Context) (domain.Order, error) {
			var out api.OrderResponse
			req := transport.Request{Method: http.MethodPost, Path: "/api/order/addorder", Body: api.PlaceOrderRequest{AddressID: addressID}}
			if _, err := c.http.Do(ctx, req, &out); err != nil {
				return domain.Order{}, err
			}
			if out.Order == nil {
				return domain.Order{}, nil
			}
			return *out.Order, nil
		},
		Invalidates: func(domain.Order) []querycache.Tag {
			return append([]querycache.Tag{querycache.TypeTag(TagCart)}, orderTags...)
		},
	}
}

// DeleteOrderMutation deletes a pending order.
func (c *Client) DeleteOrderMutation(orderID string) querycache.Mutation[string] {
	return querycache.Mutation[string]{
		Name: "deleteOrder",
		Run: func(ctx context.Context) (string, error) {
			var out api.MessageResponse
			_, err := c.http.Do(ctx, transport.Request{Method: http.MethodDelete, Path: "/api/order/deleteorder/" + url.PathEscape(orderID)}, &out)
			return out.Message, err
		},
		Invalidates: func(string) []querycache.Tag { return orderTags },
	}
}

// UpdateOrderStatusMutation asks the server to move an order to status.
func (c *Client) UpdateOrderStatusMutation(orderID string, status domain.OrderStatus) querycache.Mutation[domain.Order] {
	return querycache.Mutation[domain.Order]{
		Name: "updateOrderStatus",
		Run: func(ctx context.Context) (domain.Order, error) {
			var out api.OrderResponse
			req := transport.Request{Method: http.MethodPut, Path: "/api/order/updateorder/" + url.PathEscape(orderID), Body: api.UpdateOrderRequest{Status: status}}
			if _, err := c.http.Do(ctx, req, &out); err != nil {
				return domain.Order{}, err
			}
			if out.Order == nil {
				return domain.Order{ID: orderID, Status: status}, nil
			}
			return *out.Order, nil
		},
		Invalidates: func(domain.Order) []querycache.Tag { return orderTags },
	}
}
