package category

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("category_repo")}
}

func (r *postgresRepo) List(ctx context.Context, filter domain.CategoryFilter) ([]domain.Category, int, error) {
	f := filter.Normalize()
	search := "%" + strings.TrimSpace(f.Search) + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE name ILIKE $1`, search).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	const q = `
SELECT id::text, name, description, created_at, updated_at
FROM categories
WHERE name ILIKE $1
ORDER BY name ASC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, search, f.Limit, f.Offset())
	if err != nil {
		r.logger.Error("list categories", zap.Error(err))
		return nil, 0, db.MapError(err)
	}
	result, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("list categories", zap.Int("page", f.Page), zap.Int("count", len(result)), zap.Int("total", total))
	return result, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT id::text, name, description, created_at, updated_at
FROM categories
WHERE id = $1
`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, db.MapError(err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE
SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description),
    updated_at = NOW()
RETURNING id::text, name, description, created_at, updated_at
`
	rows, err := r.pool.Query(ctx, q, c.Name, c.Description)
	if err != nil {
		return nil, db.MapError(err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		r.logger.Error("upsert category", zap.String("name", c.Name), zap.Error(err))
		return nil, db.MapError(err)
	}
	return &out, nil
}

func scanCategory(row pgx.CollectableRow) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
