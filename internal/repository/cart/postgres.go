package cart

import (
	"context"
	"errors"

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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("cart_repo")}
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.CartLine, error) {
	const q = `
SELECT id::text, product_id::text, COALESCE(color_id::text, ''), quantity
FROM cart_items
WHERE user_id = $1
ORDER BY created_at ASC, id
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, db.MapError(err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CartLine, error) {
		var l domain.CartLine
		err := row.Scan(&l.ID, &l.ProductID, &l.ColorID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Add merges quantity into the row for (product, color), clamping the result
// to the available stock. It fails with ErrInsufficientStock when nothing is
// left to add.
func (r *postgresRepo) Add(ctx context.Context, userID string, in domain.AddToCartInput) error {
	if !validID(in.ProductID) || (in.ColorID != "" && !validID(in.ColorID)) {
		return domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	stock, err := lockStock(ctx, tx, in.ProductID, in.ColorID)
	if err != nil {
		return err
	}

	var (
		lineID      string
		existingQty int
	)
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND COALESCE(color_id::text, '') = $3
FOR UPDATE
`, userID, in.ProductID, in.ColorID).Scan(&lineID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	newQty := min(existingQty+in.Quantity, stock)
	if newQty <= existingQty {
		r.logger.Debug("add to cart: no stock left",
			zap.String("user_id", userID), zap.String("product_id", in.ProductID), zap.Int("stock", stock))
		return domain.ErrInsufficientStock
	}

	if lineID != "" {
		if _, err := tx.Exec(ctx, `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2`, newQty, lineID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (user_id, product_id, color_id, quantity)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4)
`, userID, in.ProductID, in.ColorID, newQty); err != nil {
			return db.MapError(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Debug("add to cart", zap.String("user_id", userID), zap.String("product_id", in.ProductID), zap.Int("quantity", newQty))
	return nil
}

// SetQuantity replaces the quantity of one row. Zero or less deletes it.
func (r *postgresRepo) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return r.Delete(ctx, userID, itemID)
	}
	if !validID(itemID) {
		return domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var productID, colorID string
	err = tx.QueryRow(ctx, `
SELECT product_id::text, COALESCE(color_id::text, '')
FROM cart_items
WHERE id = $1 AND user_id = $2
FOR UPDATE
`, itemID, userID).Scan(&productID, &colorID)
	if err != nil {
		return db.MapError(err)
	}
	stock, err := lockStock(ctx, tx, productID, colorID)
	if err != nil {
		return err
	}
	if quantity > stock {
		return domain.ErrInsufficientStock
	}
	if _, err := tx.Exec(ctx, `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, itemID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Delete(ctx context.Context, userID, itemID string) error {
	if !validID(itemID) {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return db.MapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// lockStock returns the stock of a product or one of its colors, holding a
// share lock on the row until the transaction ends.
func lockStock(ctx context.Context, tx pgx.Tx, productID, colorID string) (int, error) {
	var (
		stock int
		err   error
	)
	if colorID == "" {
		err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR SHARE`, productID).Scan(&stock)
	} else {
		err = tx.QueryRow(ctx, `
SELECT stock FROM product_colors WHERE product_id = $1 AND color_id = $2 FOR SHARE
`, productID, colorID).Scan(&stock)
	}
	if err != nil {
		return 0, db.MapError(err)
	}
	return stock, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
