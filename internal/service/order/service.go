package order

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
	orderrepo "jewelry-storefront/internal/repository/order"
)

// Service places orders from the cart and walks them through the status table.
type Service struct {
	repo   orderrepo.Repository
	logger *zap.Logger
}

func New(repo orderrepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger).Named("order_service")}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Place(ctx context.Context, userID, addressID string) (*domain.Order, error) {
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return nil, domain.Invalid("addressId", "required")
	}
	return s.repo.PlaceFromCart(ctx, userID, addressID)
}

// Delete removes an order that is still PENDING.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeletePending(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("user_id", userID), zap.String("order_id", id))
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error) {
	status = domain.OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, domain.Invalid("status", "unknown order status")
	}
	return s.repo.Transition(ctx, userID, id, status)
}
