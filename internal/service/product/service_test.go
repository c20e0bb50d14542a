package product

import (
	"context"
	"errors"
	"testing"

	"jewelry-storefront/internal/domain"
)

type stubRepo struct {
	products    []domain.Product
	total       int
	lastFilter  domain.ProductFilter
	lastLimit   int
	lastIDs     []string
	listErr     error
	latestCalls int
}

func (s *stubRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	s.lastFilter = f
	return s.products, s.total, s.listErr
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.lastIDs = ids
	return s.products, nil
}

func (s *stubRepo) Search(_ context.Context, _ string, limit int) ([]domain.Product, error) {
	s.lastLimit = limit
	return s.products, nil
}

func (s *stubRepo) Latest(_ context.Context, limit int) ([]domain.Product, error) {
	s.latestCalls++
	s.lastLimit = limit
	return s.products, nil
}

func (s *stubRepo) ListByCategory(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubRepo) Colors(_ context.Context, _ string) ([]domain.ProductColor, error) {
	return nil, nil
}

func TestListBuildsPage(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{{ID: "p1"}, {ID: "p2"}}, total: 25}
	svc := New(repo, 0)

	page, err := svc.List(context.Background(), domain.ProductFilter{Page: 0, Limit: 0, Search: "ring"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Page != 1 || repo.lastFilter.Limit != 10 || repo.lastFilter.Search != "ring" {
		t.Fatalf("filter not normalized: %+v", repo.lastFilter)
	}
	if page.Total != 25 || page.TotalPages != 3 || len(page.Data) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestListPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&stubRepo{listErr: boom}, 0)
	if _, err := svc.List(context.Background(), domain.ProductFilter{}); !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestBatchValidation(t *testing.T) {
	svc := New(&stubRepo{}, 0)
	var verr *domain.ValidationError
	if _, err := svc.Batch(context.Background(), nil); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty ids, got %v", err)
	}
	if _, err := svc.Batch(context.Background(), make([]string, maxBatchIDs+1)); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for too many ids, got %v", err)
	}
}

func TestFreshDropsUsesConfiguredLimit(t *testing.T) {
	repo := &stubRepo{}
	if _, err := New(repo, 4).FreshDrops(context.Background()); err != nil {
		t.Fatalf("fresh drops: %v", err)
	}
	if repo.lastLimit != 4 {
		t.Fatalf("expected limit 4, got %d", repo.lastLimit)
	}
	if _, err := New(repo, 0).FreshDrops(context.Background()); err != nil {
		t.Fatalf("fresh drops: %v", err)
	}
	if repo.lastLimit != defaultFresh {
		t.Fatalf("expected default limit, got %d", repo.lastLimit)
	}
}
