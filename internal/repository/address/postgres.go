package address

import (
	"context"

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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("address_repo")}
}

const columns = `id::text, user_id::text, street, zip_code, city, country, state, label, created_at, updated_at`

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM addresses WHERE user_id = $1 ORDER BY created_at ASC, id`, userID)
	if err != nil {
		return nil, db.MapError(err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

func (r *postgresRepo) Create(ctx context.Context, userID string, in domain.AddressInput) (*domain.Address, error) {
	const q = `
INSERT INTO addresses (user_id, street, zip_code, city, country, state, label)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + columns
	rows, err := r.pool.Query(ctx, q, userID, in.Street, in.ZipCode, in.City, in.Country, in.State, in.Label)
	if err != nil {
		return nil, db.MapError(err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		r.logger.Error("create address", zap.String("user_id", userID), zap.Error(err))
		return nil, db.MapError(err)
	}
	r.logger.Debug("created address", zap.String("user_id", userID), zap.String("id", a.ID))
	return &a, nil
}

func (r *postgresRepo) Update(ctx context.Context, userID, id string, in domain.AddressInput) (*domain.Address, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
UPDATE addresses
SET street = $3, zip_code = $4, city = $5, country = $6, state = $7, label = $8, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + columns
	rows, err := r.pool.Query(ctx, q, id, userID, in.Street, in.ZipCode, in.City, in.Country, in.State, in.Label)
	if err != nil {
		return nil, db.MapError(err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &a, nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.ZipCode, &a.City, &a.Country, &a.State, &a.Label, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
