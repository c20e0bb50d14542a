package category

import (
	"context"
	"errors"
	"testing"

	"jewelry-storefront/internal/db/dbtest"
	"jewelry-storefront/internal/domain"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	for _, name := range []string{"Rings", "Necklaces", "Earrings"} {
		if _, err := repo.Upsert(ctx, domain.Category{Name: name}); err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	list, total, err := repo.List(ctx, domain.CategoryFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(list) != 2 || list[0].Name != "Earrings" {
		t.Fatalf("unexpected list total=%d %+v", total, list)
	}

	found, total, err := repo.List(ctx, domain.CategoryFilter{Search: "neck"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || found[0].Name != "Necklaces" {
		t.Fatalf("unexpected search result %+v", found)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	first, err := repo.Upsert(ctx, domain.Category{Name: "Rings", Description: "old"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Name: "Rings", Description: "new"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID || second.Description != "new" {
		t.Fatalf("expected update in place, got %+v then %+v", first, second)
	}

	kept, err := repo.Upsert(ctx, domain.Category{Name: "Rings"})
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if kept.Description != "new" {
		t.Fatalf("empty description should keep the old one, got %q", kept.Description)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || got.Name != "Rings" {
		t.Fatalf("GetByID: %v %+v", err, got)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
