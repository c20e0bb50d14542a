package product

import (
	"context"

	"jewelry-storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Product, error)
	Latest(ctx context.Context, limit int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	Colors(ctx context.Context, productID string) ([]domain.ProductColor, error)
}

// Writer is implemented by repositories that can create or update products.
type Writer interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type Store interface {
	Repository
	Writer
}
