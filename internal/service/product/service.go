package product

import (
	"context"

	"jewelry-storefront/internal/domain"
	productrepo "jewelry-storefront/internal/repository/product"
)

const (
	maxBatchIDs  = 100
	searchLimit  = 50
	defaultFresh = 8
)

type Service struct {
	repo       productrepo.Repository
	freshDrops int
}

func New(repo productrepo.Repository, freshDrops int) *Service {
	if freshDrops <= 0 {
		freshDrops = defaultFresh
	}
	return &Service{repo: repo, freshDrops: freshDrops}
}

func (s *Service) List(ctx context.Context, filter domain.ProductFilter) (domain.Page[domain.Product], error) {
	f := filter.Normalize()
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return domain.NewPage(products, total, f.Page, f.Limit), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Batch returns the known products among ids, in request order.
func (s *Service) Batch(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, domain.Invalid("ids", "required")
	}
	if len(ids) > maxBatchIDs {
		return nil, domain.Invalid("ids", "too many ids")
	}
	return s.repo.GetByIDs(ctx, ids)
}

func (s *Service) Search(ctx context.Context, term string) ([]domain.Product, error) {
	return s.repo.Search(ctx, term, searchLimit)
}

// FreshDrops lists the newest products.
func (s *Service) FreshDrops(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Latest(ctx, s.freshDrops)
}

func (s *Service) Colors(ctx context.Context, productID string) ([]domain.ProductColor, error) {
	return s.repo.Colors(ctx, productID)
}

func (s *Service) ByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}
