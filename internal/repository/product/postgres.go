package product

import (
	"context"
	"fmt"
	"strconv"
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

// NewPostgres returns a product store backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Store {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

const productColumns = `p.id::text, p.name, p.description, p.price::text, p.stock, p.created_at, p.updated_at`

func (r *postgresRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	f := filter.Normalize()
	where, args := productWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		r.logger.Error("count products", zap.Error(err))
		return nil, 0, db.MapError(err)
	}

	args = append(args, f.Limit, f.Offset())
	q := `SELECT ` + productColumns + ` FROM products p` + where +
		` ORDER BY p.created_at DESC, p.id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	products, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("list products", zap.Int("page", f.Page), zap.Int("count", len(products)), zap.Int("total", total))
	return products, total, nil
}

func productWhere(f domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id::text = $%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	products, err := r.query(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		r.logger.Debug("get product not found", zap.String("id", id))
		return nil, domain.ErrNotFound
	}
	return &products[0], nil
}

// GetByIDs returns the products among ids that exist, in the order of ids.
// Malformed and unknown ids are skipped.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []domain.Product{}, nil
	}
	found, err := r.query(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ANY($1::text[]::uuid[])`, valid)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, id := range valid {
		if p, ok := byID[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	r.logger.Debug("batch products", zap.Int("requested", len(ids)), zap.Int("found", len(out)))
	return out, nil
}

func (r *postgresRepo) Search(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}, nil
	}
	const q = `SELECT ` + productColumns + `
FROM products p
WHERE p.name ILIKE $1 OR p.description ILIKE $1
ORDER BY (p.name ILIKE $1) DESC, p.name ASC
LIMIT $2`
	return r.query(ctx, q, "%"+term+"%", limit)
}

// Latest returns the most recently created products.
func (r *postgresRepo) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.created_at DESC, p.id LIMIT $1`, limit)
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	if _, err := uuid.Parse(categoryID); err != nil {
		return nil, domain.ErrNotFound
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists); err != nil {
		return nil, db.MapError(err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + productColumns + `
FROM products p
JOIN product_categories pc ON pc.product_id = p.id
WHERE pc.category_id = $1
ORDER BY p.created_at DESC, p.id`
	return r.query(ctx, q, categoryID)
}

func (r *postgresRepo) Colors(ctx context.Context, productID string) ([]domain.ProductColor, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, domain.ErrNotFound
	}
	colors, err := r.loadColors(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	out := colors[productID]
	if out == nil {
		out = []domain.ProductColor{}
	}
	return out, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("query products", zap.Error(err))
		return nil, db.MapError(err)
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = db.ParseDecimal(price); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("scan products", zap.Error(err))
		return nil, err
	}
	if err := r.attach(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// attach loads images, colors and categories for products in three queries.
func (r *postgresRepo) attach(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	images, err := r.loadImages(ctx, ids)
	if err != nil {
		return err
	}
	colors, err := r.loadColors(ctx, ids)
	if err != nil {
		return err
	}
	categories, err := r.loadCategories(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		id := products[i].ID
		products[i].Images = images[id]
		if products[i].Images == nil {
			products[i].Images = []domain.ProductImage{}
		}
		products[i].Colors = colors[id]
		products[i].Categories = categories[id]
	}
	return nil
}

func (r *postgresRepo) loadImages(ctx context.Context, ids []string) (map[string][]domain.ProductImage, error) {
	const q = `
SELECT id::text, product_id::text, image_url, public_id, is_default
FROM product_images
WHERE product_id = ANY($1::text[]::uuid[])
ORDER BY product_id, position, id
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, db.MapError(err)
	}
	return collectGrouped(rows, func(row pgx.CollectableRow) (string, domain.ProductImage, error) {
		var img domain.ProductImage
		err := row.Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.PublicID, &img.IsDefault)
		return img.ProductID, img, err
	})
}

func (r *postgresRepo) loadColors(ctx context.Context, ids []string) (map[string][]domain.ProductColor, error) {
	const q = `
SELECT pc.id::text, pc.product_id::text, pc.color_id::text, pc.stock, c.name, c.hex_code
FROM product_colors pc
JOIN colors c ON c.id = pc.color_id
WHERE pc.product_id = ANY($1::text[]::uuid[])
ORDER BY pc.product_id, c.name
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, db.MapError(err)
	}
	return collectGrouped(rows, func(row pgx.CollectableRow) (string, domain.ProductColor, error) {
		var (
			pc    domain.ProductColor
			color domain.Color
		)
		err := row.Scan(&pc.ID, &pc.ProductID, &pc.ColorID, &pc.Stock, &color.Name, &color.HexCode)
		color.ID = pc.ColorID
		pc.Color = &color
		return pc.ProductID, pc, err
	})
}

func (r *postgresRepo) loadCategories(ctx context.Context, ids []string) (map[string][]domain.Category, error) {
	const q = `
SELECT pc.product_id::text, c.id::text, c.name, c.description, c.created_at, c.updated_at
FROM product_categories pc
JOIN categories c ON c.id = pc.category_id
WHERE pc.product_id = ANY($1::text[]::uuid[])
ORDER BY pc.product_id, c.name
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, db.MapError(err)
	}
	return collectGrouped(rows, func(row pgx.CollectableRow) (string, domain.Category, error) {
		var (
			productID string
			c         domain.Category
		)
		err := row.Scan(&productID, &c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		return productID, c, err
	})
}

func collectGrouped[T any](rows pgx.Rows, scan func(pgx.CollectableRow) (string, T, error)) (map[string][]T, error) {
	defer rows.Close()
	out := make(map[string][]T)
	for rows.Next() {
		key, v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[key] = append(out[key], v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert creates or updates a product by name, replacing its images, colors
// and category links. Referenced colors and categories are created by name.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res := product
	res.Images = append([]domain.ProductImage(nil), product.Images...)
	res.Colors = append([]domain.ProductColor(nil), product.Colors...)
	res.Categories = append([]domain.Category(nil), product.Categories...)
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
INSERT INTO products (name, description, price, stock)
VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (name) DO UPDATE SET
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    updated_at = NOW()
RETURNING id::text, created_at, updated_at
`
		if err := tx.QueryRow(ctx, q, product.Name, product.Description, product.Price.String(), product.Stock).
			Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return db.MapError(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, res.ID); err != nil {
			return err
		}
		for i, img := range product.Images {
			err := tx.QueryRow(ctx, `
INSERT INTO product_images (product_id, image_url, public_id, is_default, position)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text`, res.ID, img.ImageURL, img.PublicID, img.IsDefault, i).Scan(&res.Images[i].ID)
			if err != nil {
				return err
			}
			res.Images[i].ProductID = res.ID
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_colors WHERE product_id = $1`, res.ID); err != nil {
			return err
		}
		for i, pc := range product.Colors {
			if pc.Color == nil || pc.Color.Name == "" {
				return fmt.Errorf("product %q: color %d has no name", product.Name, i)
			}
			var colorID string
			err := tx.QueryRow(ctx, `
INSERT INTO colors (name, hex_code) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET hex_code = COALESCE(NULLIF(EXCLUDED.hex_code, ''), colors.hex_code)
RETURNING id::text`, pc.Color.Name, pc.Color.HexCode).Scan(&colorID)
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, `
INSERT INTO product_colors (product_id, color_id, stock) VALUES ($1, $2, $3)
RETURNING id::text`, res.ID, colorID, pc.Stock).Scan(&res.Colors[i].ID); err != nil {
				return err
			}
			res.Colors[i].ProductID = res.ID
			res.Colors[i].ColorID = colorID
			res.Colors[i].Color = &domain.Color{ID: colorID, Name: pc.Color.Name, HexCode: pc.Color.HexCode}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, res.ID); err != nil {
			return err
		}
		for i, c := range product.Categories {
			err := tx.QueryRow(ctx, `
INSERT INTO categories (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description)
RETURNING id::text`, c.Name, c.Description).Scan(&res.Categories[i].ID)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, res.ID, res.Categories[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("upsert product", zap.String("name", product.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Info("upserted product", zap.String("name", res.Name), zap.String("id", res.ID))
	return &res, nil
}
