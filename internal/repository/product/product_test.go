package product

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/db/dbtest"
	"jewelry-storefront/internal/domain"
)

func TestPostgres_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		Name:        "Signet Ring",
		Description: "Solid gold",
		Price:       decimal.RequireFromString("249.99"),
		Stock:       4,
		Images:      []domain.ProductImage{{ImageURL: "https://img/1.jpg", IsDefault: true}, {ImageURL: "https://img/2.jpg"}},
		Colors:      []domain.ProductColor{{Stock: 2, Color: &domain.Color{Name: "Gold", HexCode: "#FFD700"}}},
		Categories:  []domain.Category{{Name: "Rings"}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.ID == "" || len(p.Colors) != 1 || p.Colors[0].ColorID == "" {
		t.Fatalf("unexpected upsert result %+v", p)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("249.99")) {
		t.Fatalf("unexpected price %s", got.Price)
	}
	if len(got.Images) != 2 || got.DefaultImage() != "https://img/1.jpg" {
		t.Fatalf("unexpected images %+v", got.Images)
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "Rings" {
		t.Fatalf("unexpected categories %+v", got.Categories)
	}
	if got.StockFor(p.Colors[0].ColorID) != 2 {
		t.Fatalf("expected color stock 2, got %d", got.StockFor(p.Colors[0].ColorID))
	}

	again, err := repo.Upsert(ctx, domain.Product{Name: "Signet Ring", Price: decimal.NewFromInt(199), Stock: 1})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if again.ID != p.ID {
		t.Fatalf("expected upsert by name to keep id %s, got %s", p.ID, again.ID)
	}
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	for _, id := range []string{"not-a-uuid", "7b0c5a8e-0000-4000-8000-000000000000"} {
		if _, err := repo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestPostgres_ListPagingAndFilters(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	names := []string{"Pearl Studs", "Gold Hoops", "Silver Chain"}
	for _, n := range names {
		if _, err := repo.Upsert(ctx, domain.Product{Name: n, Price: decimal.NewFromInt(10), Stock: 1, Categories: categoriesFor(n)}); err != nil {
			t.Fatalf("Upsert %s: %v", n, err)
		}
	}

	page, total, err := repo.List(ctx, domain.ProductFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("expected total 3 and 1 row on page 2, got total=%d rows=%d", total, len(page))
	}

	found, total, err := repo.List(ctx, domain.ProductFilter{Search: "gold"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if total != 1 || found[0].Name != "Gold Hoops" {
		t.Fatalf("unexpected search result total=%d %+v", total, found)
	}

	earrings := found[0].Categories[0].ID
	byCat, total, err := repo.List(ctx, domain.ProductFilter{CategoryID: earrings})
	if err != nil {
		t.Fatalf("List category: %v", err)
	}
	if total != 2 || len(byCat) != 2 {
		t.Fatalf("expected 2 earrings, got %d", total)
	}

	listed, err := repo.ListByCategory(ctx, earrings)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListByCategory: %v (%d)", err, len(listed))
	}
}

func TestPostgres_GetByIDsKeepsOrderAndSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	a := dbtest.InsertProduct(ctx, t, pool, "A", "1.00", 1)
	b := dbtest.InsertProduct(ctx, t, pool, "B", "2.00", 1)

	got, err := repo.GetByIDs(ctx, []string{b, "bogus", a, b, "7b0c5a8e-0000-4000-8000-000000000000"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 || got[0].ID != b || got[1].ID != a {
		t.Fatalf("unexpected batch %+v", got)
	}

	latest, err := repo.Latest(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].ID != b {
		t.Fatalf("Latest: %v %+v", err, latest)
	}
}

func categoriesFor(name string) []domain.Category {
	switch name {
	case "Pearl Studs", "Gold Hoops":
		return []domain.Category{{Name: "Earrings"}}
	}
	return []domain.Category{{Name: "Necklaces"}}
}
