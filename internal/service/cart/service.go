package cart

import (
	"context"
	"strings"

	"jewelry-storefront/internal/domain"
	cartrepo "jewelry-storefront/internal/repository/cart"
)

// Service manages the server-side cart of a signed-in user. Every mutation
// answers with the full updated cart.
type Service struct {
	repo cartrepo.Repository
}

func New(repo cartrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Add(ctx context.Context, userID string, in domain.AddToCartInput) ([]domain.CartLine, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ColorID = strings.TrimSpace(in.ColorID)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, userID, in); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// Update sets the quantity of a row; zero or less removes it.
func (s *Service) Update(ctx context.Context, userID string, in domain.UpdateCartInput) ([]domain.CartLine, error) {
	itemID := strings.TrimSpace(in.CartItemID)
	if itemID == "" {
		return nil, domain.Invalid("cartItemId", "required")
	}
	if err := s.repo.SetQuantity(ctx, userID, itemID, in.Quantity); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) ([]domain.CartLine, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, domain.Invalid("cartItemId", "required")
	}
	if err := s.repo.Delete(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}
