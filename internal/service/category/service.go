package category

import (
	"context"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter domain.CategoryFilter) (domain.Page[domain.Category], error) {
	f := filter.Normalize()
	cats, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.Page[domain.Category]{}, err
	}
	return domain.NewPage(cats, total, f.Page, f.Limit), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.Name == "" {
		return nil, domain.Invalid("name", "required")
	}
	return s.repo.Upsert(ctx, c)
}
