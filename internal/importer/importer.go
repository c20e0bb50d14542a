package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products by name.
//
// Columns: name, description, price, stock, categories (";"-separated),
// colors (";"-separated "name:hex:stock"), image_url. A row with an empty
// name continues the previous product and only contributes its image.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logging.OrNop(logger).Named("importer"),
	}
}

type csvRow struct {
	line       int
	Name       string
	Desc       string
	Price      string
	Stock      string
	Categories []string
	Colors     []string
	ImageURLs  []string
}

// Run parses CSV rows and upserts products grouped by name.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("read headers: missing name column")
	}

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line

		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p, err := row.product()
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}
	saved, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	i.logger.Debug("product imported", zap.String("name", saved.Name), zap.String("id", saved.ID))
	return nil
}

func (row *csvRow) product() (domain.Product, error) {
	price, err := decimal.NewFromString(row.Price)
	if err != nil || !price.IsPositive() {
		return domain.Product{}, fmt.Errorf("invalid price %q for %q", row.Price, row.Name)
	}
	stock := 0
	if row.Stock != "" {
		stock, err = strconv.Atoi(row.Stock)
		if err != nil || stock < 0 {
			return domain.Product{}, fmt.Errorf("invalid stock %q for %q", row.Stock, row.Name)
		}
	}

	p := domain.Product{
		Name:        row.Name,
		Description: row.Desc,
		Price:       price.Round(2),
		Stock:       stock,
	}
	for n, u := range row.ImageURLs {
		p.Images = append(p.Images, domain.ProductImage{ImageURL: u, IsDefault: n == 0})
	}
	for _, name := range row.Categories {
		p.Categories = append(p.Categories, domain.Category{Name: name})
	}
	for _, raw := range row.Colors {
		c, err := parseColor(raw)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%q: %w", row.Name, err)
		}
		p.Colors = append(p.Colors, c)
	}
	return p, nil
}

// parseColor reads "name:hex:stock"; hex and stock are optional.
func parseColor(raw string) (domain.ProductColor, error) {
	parts := strings.Split(raw, ":")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return domain.ProductColor{}, fmt.Errorf("invalid color %q", raw)
	}
	c := domain.ProductColor{Color: &domain.Color{Name: name}}
	if len(parts) > 1 {
		c.Color.HexCode = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || n < 0 {
			return domain.ProductColor{}, fmt.Errorf("invalid color stock %q", raw)
		}
		c.Stock = n
	}
	return c, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	name := pick(record, index, "name")
	imageURL := pick(record, index, "image_url")

	if name == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		Name:       name,
		Desc:       pick(record, index, "description"),
		Price:      pick(record, index, "price"),
		Stock:      pick(record, index, "stock"),
		Categories: splitList(pick(record, index, "categories")),
		Colors:     splitList(pick(record, index, "colors")),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
