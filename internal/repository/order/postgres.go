package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("order_repo")}
}

const orderColumns = `id::text, user_id::text, COALESCE(address_id::text, ''), total_amount::text, final_amount::text, status, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.load(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

func (r *postgresRepo) GetByID(ctx context.Context, userID, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, r.pool, userID, id)
}

func (r *postgresRepo) getOne(ctx context.Context, q querier, userID, id string) (*domain.Order, error) {
	orders, err := r.load(ctx, q, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

type cartRow struct {
	productID    string
	colorID      string
	quantity     int
	price        decimal.Decimal
	productStock int
	colorStock   *int
}

func (r *postgresRepo) PlaceFromCart(ctx context.Context, userID, addressID string) (*domain.Order, error) {
	if !validID(addressID) {
		return nil, domain.ErrNotFound
	}
	var placed *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var owned bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`, addressID, userID).Scan(&owned); err != nil {
			return db.MapError(err)
		}
		if !owned {
			return domain.ErrNotFound
		}

		rows, err := tx.Query(ctx, `
SELECT ci.product_id::text, COALESCE(ci.color_id::text, ''), ci.quantity, p.price::text, p.stock, pc.stock
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN product_colors pc ON pc.product_id = ci.product_id AND pc.color_id = ci.color_id
WHERE ci.user_id = $1
ORDER BY ci.created_at, ci.id
FOR UPDATE OF ci, p
`, userID)
		if err != nil {
			return err
		}
		lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cartRow, error) {
			var (
				c     cartRow
				price string
			)
			if err := row.Scan(&c.productID, &c.colorID, &c.quantity, &price, &c.productStock, &c.colorStock); err != nil {
				return c, err
			}
			var err error
			c.price, err = db.ParseDecimal(price)
			return c, err
		})
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		total := decimal.Zero
		for _, l := range lines {
			available := l.productStock
			if l.colorID != "" && l.colorStock != nil {
				available = *l.colorStock
			}
			if l.quantity > available {
				return fmt.Errorf("product %s: %w", l.productID, domain.ErrInsufficientStock)
			}
			total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.quantity))))
		}

		var orderID string
		if err := tx.QueryRow(ctx, `
INSERT INTO orders (user_id, address_id, total_amount, final_amount, status)
VALUES ($1, $2, $3::numeric, $3::numeric, $4)
RETURNING id::text
`, userID, addressID, total.String(), domain.OrderPending).Scan(&orderID); err != nil {
			return db.MapError(err)
		}
		for _, l := range lines {
			if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, color_id, quantity, price)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5::numeric)
`, orderID, l.productID, l.colorID, l.quantity, l.price.String()); err != nil {
				return err
			}
			if err := adjustStock(ctx, tx, l.productID, l.colorID, -l.quantity); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return err
		}

		placed, err = r.getOne(ctx, tx, userID, orderID)
		return err
	})
	if err != nil {
		r.logger.Debug("place order failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order placed",
		zap.String("user_id", userID),
		zap.String("order_id", placed.ID),
		zap.String("total", placed.TotalAmount.StringFixed(2)),
		zap.Int("items", len(placed.Items)),
	)
	return placed, nil
}

func (r *postgresRepo) DeletePending(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		status, err := lockStatus(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if !status.Deletable() {
			return domain.ErrInvalidTransition
		}
		if err := releaseStock(ctx, tx, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		return err
	})
}

func (r *postgresRepo) Transition(ctx context.Context, userID, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var out *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		status, err := lockStatus(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if !status.CanTransitionTo(next) {
			return fmt.Errorf("%s -> %s: %w", status, next, domain.ErrInvalidTransition)
		}
		if next == domain.OrderCancelled {
			if err := releaseStock(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, next, id); err != nil {
			return err
		}
		out, err = r.getOne(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("order status changed", zap.String("order_id", id), zap.String("status", string(next)))
	return out, nil
}

func lockStatus(ctx context.Context, tx pgx.Tx, userID, id string) (domain.OrderStatus, error) {
	var status domain.OrderStatus
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&status)
	if err != nil {
		return "", db.MapError(err)
	}
	return status, nil
}

func releaseStock(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx, `SELECT product_id::text, COALESCE(color_id::text, ''), quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ProductID, &it.ColorID, &it.Quantity)
		return it, err
	})
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := adjustStock(ctx, tx, it.ProductID, it.ColorID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// adjustStock adds delta to the product stock and, for a color line, to the
// color stock. Stock never drops below zero.
func adjustStock(ctx context.Context, tx pgx.Tx, productID, colorID string, delta int) error {
	if _, err := tx.Exec(ctx, `UPDATE products SET stock = GREATEST(stock + $1, 0), updated_at = NOW() WHERE id = $2`, delta, productID); err != nil {
		return err
	}
	if colorID == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
UPDATE product_colors SET stock = GREATEST(stock + $1, 0)
WHERE product_id = $2 AND color_id = $3
`, delta, productID, colorID)
	return err
}

func (r *postgresRepo) load(ctx context.Context, q querier, sql string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		var (
			o            domain.Order
			total, final string
		)
		if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &total, &final, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return o, err
		}
		var err error
		if o.TotalAmount, err = db.ParseDecimal(total); err != nil {
			return o, err
		}
		o.FinalAmount, err = db.ParseDecimal(final)
		return o, err
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []domain.OrderItem{}
	}
	rows, err = q.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, COALESCE(color_id::text, ''), quantity, price::text
FROM order_items
WHERE order_id = ANY($1::text[]::uuid[])
ORDER BY order_id, id
`, ids)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var (
			it    domain.OrderItem
			price string
		)
		if err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ColorID, &it.Quantity, &price); err != nil {
			return it, err
		}
		var err error
		it.Price, err = db.ParseDecimal(price)
		return it, err
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
