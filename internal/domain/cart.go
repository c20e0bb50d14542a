package domain

// CartLine is a cart row as the API returns it: a product reference and a
// quantity, without price. Prices are joined in from the product catalog.
type CartLine struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// AddToCartInput is the body of an add-to-cart request.
type AddToCartInput struct {
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (in AddToCartInput) Validate() error {
	if in.ProductID == "" {
		return Invalid("productId", "required")
	}
	if in.Quantity <= 0 {
		return Invalid("quantity", "must be positive")
	}
	return nil
}

// UpdateCartInput changes the quantity of a cart row; zero or less removes it.
type UpdateCartInput struct {
	CartItemID string `json:"cartItemId"`
	Quantity   int    `json:"quantity"`
}
