package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The storefront API exchanges prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []ProductImage  `json:"images"`
	Colors      []ProductColor  `json:"colors,omitempty"`
	Categories  []Category      `json:"categories,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductImage struct {
	ID        string `json:"id"`
	ProductID string `json:"productId,omitempty"`
	ImageURL  string `json:"imageUrl"`
	PublicID  string `json:"publicId,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// ProductColor is a color variant of a product with its own stock.
type ProductColor struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId"`
	Stock     int    `json:"stock"`
	Color     *Color `json:"color,omitempty"`
}

type Color struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hexCode"`
}

// DefaultImage returns the URL of the default image, falling back to the first one.
func (p Product) DefaultImage() string {
	for _, img := range p.Images {
		if img.IsDefault {
			return img.ImageURL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return ""
}

// StockFor returns the stock of the given color variant, or the product stock
// when colorID is empty or unknown.
func (p Product) StockFor(colorID string) int {
	if colorID != "" {
		for _, c := range p.Colors {
			if c.ColorID == colorID {
				return c.Stock
			}
		}
	}
	return p.Stock
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Search     string `json:"search,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Normalize applies the default paging used by the storefront.
func (f ProductFilter) Normalize() ProductFilter {
	f.Page, f.Limit = normalizePaging(f.Page, f.Limit)
	return f
}

func normalizePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// Offset returns the row offset of the filter's page.
func (f ProductFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.Limit
}
