package storefront

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/cartstore"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/enrich"
	"jewelry-storefront/internal/querycache"
	"jewelry-storefront/internal/transport"
)

var cartTags = []querycache.Tag{querycache.TypeTag(TagCart)}

// CartQuery fetches the server cart of the signed-in user.
func (c *Client) CartQuery() querycache.Query[[]domain.CartLine] {
	return querycache.Query[[]domain.CartLine]{
		Endpoint: "getCart",
		Fetch: func(ctx context.Context) ([]domain.CartLine, error) {
			var out api.CartResponse
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/getcart"}, &out)
			if out.Data == nil && err == nil {
				out.Data = []domain.CartLine{}
			}
			return out.Data, err
		},
		Tags: func([]domain.CartLine, error) []querycache.Tag { return cartTags },
	}
}

func (c *Client) Cart(ctx context.Context) ([]domain.CartLine, error) {
	lines, err := querycache.Fetch(ctx, c.cache, c.CartQuery())
	return lines, wrap(err, "get cart")
}

func (c *Client) cartMutation(name, method, path string, body any) querycache.Mutation[[]domain.CartLine] {
	return querycache.Mutation[[]domain.CartLine]{
		Name: name,
		Run: func(ctx context.Context) ([]domain.CartLine, error) {
			var out api.CartResponse
			_, err := c.http.Do(ctx, transport.Request{Method: method, Path: path, Body: body}, &out)
			return out.Data, err
		},
		Invalidates: func([]domain.CartLine) []querycache.Tag { return cartTags },
	}
}

// AddToCart adds an item to the server cart.
func (c *Client) AddToCart(ctx context.Context, in domain.AddToCartInput) ([]domain.CartLine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	lines, err := querycache.Mutate(ctx, c.cache, c.cartMutation("addToCart", http.MethodPost, "/api/addcart", in))
	return lines, wrap(err, "add to cart")
}

// UpdateCartItem sets the quantity of a server cart row.
func (c *Client) UpdateCartItem(ctx context.Context, in domain.UpdateCartInput) ([]domain.CartLine, error) {
	if in.CartItemID == "" {
		return nil, domain.Invalid("cartItemId", "required")
	}
	lines, err := querycache.Mutate(ctx, c.cache, c.cartMutation("updateCart", http.MethodPut, "/api/updatecart", in))
	return lines, wrap(err, "update cart")
}

// DeleteCartItem removes a server cart row.
func (c *Client) DeleteCartItem(ctx context.Context, cartItemID string) ([]domain.CartLine, error) {
	if cartItemID == "" {
		return nil, domain.Invalid("cartItemId", "required")
	}
	body := api.DeleteCartItemRequest{CartItemID: cartItemID}
	lines, err := querycache.Mutate(ctx, c.cache, c.cartMutation("deleteCartItem", http.MethodDelete, "/api/deletecartitem", body))
	return lines, wrap(err, "delete cart item")
}

// Enrich joins lines with their products without blocking.
func (c *Client) Enrich(lines []domain.CartLine) enrich.Result {
	return c.enrich.Compute(lines)
}

// EnrichedCart fetches the server cart and joins it with its products.
func (c *Client) EnrichedCart(ctx context.Context) (enrich.Result, error) {
	lines, err := c.Cart(ctx)
	if err != nil {
		return enrich.Result{}, err
	}
	res, err := c.enrich.Load(ctx, lines)
	return res, wrap(err, "enrich cart")
}

// PushLocalCart sends the lines held in the local cart store to the server
// cart. Lines the server accepts leave the local store; the rest stay so the
// push can be repeated.
func (c *Client) PushLocalCart(ctx context.Context) (int, error) {
	pushed := 0
	for _, l := range c.cart.Lines() {
		in := domain.AddToCartInput{ProductID: l.ProductID, ColorID: l.ColorID, Quantity: l.Quantity}
		if _, err := c.AddToCart(ctx, in); err != nil {
			c.logger.Warn("push cart line", zap.String("product_id", l.ProductID), zap.Error(err))
			return pushed, err
		}
		if err := c.cart.RemoveLine(l.ID); err != nil && !errors.Is(err, cartstore.ErrLineNotFound) {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}
