package address

import (
	"context"
	"strings"

	"jewelry-storefront/internal/domain"
	addressrepo "jewelry-storefront/internal/repository/address"
)

type Service struct {
	repo addressrepo.Repository
}

func New(repo addressrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID string, in domain.AddressInput) (*domain.Address, error) {
	in = trim(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, userID, in)
}

func (s *Service) Update(ctx context.Context, userID, id string, in domain.AddressInput) (*domain.Address, error) {
	in = trim(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, in)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func trim(in domain.AddressInput) domain.AddressInput {
	in.Street = strings.TrimSpace(in.Street)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	in.State = strings.TrimSpace(in.State)
	in.Label = strings.TrimSpace(in.Label)
	return in
}
