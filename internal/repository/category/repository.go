package category

import (
	"context"

	"jewelry-storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.CategoryFilter) ([]domain.Category, int, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}
