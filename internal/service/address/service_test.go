package address

import (
	"context"
	"errors"
	"testing"

	"jewelry-storefront/internal/domain"
)

type stubRepo struct {
	created   domain.AddressInput
	updated   string
	deleted   string
	addrs     []domain.Address
	updateErr error
}

func (s *stubRepo) ListByUser(_ context.Context, _ string) ([]domain.Address, error) {
	return s.addrs, nil
}

func (s *stubRepo) Create(_ context.Context, userID string, in domain.AddressInput) (*domain.Address, error) {
	s.created = in
	return &domain.Address{ID: "a1", UserID: userID, Street: in.Street}, nil
}

func (s *stubRepo) Update(_ context.Context, _, id string, in domain.AddressInput) (*domain.Address, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updated = id
	return &domain.Address{ID: id, Street: in.Street}, nil
}

func (s *stubRepo) Delete(_ context.Context, _, id string) error {
	s.deleted = id
	return nil
}

func validInput() domain.AddressInput {
	return domain.AddressInput{Street: " 5 Rue Cler ", ZipCode: "75007", City: "Paris", Country: "FR", State: "IDF"}
}

func TestCreateTrimsAndValidates(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)

	in := validInput()
	in.City = "   "
	var verr *domain.ValidationError
	if _, err := svc.Create(context.Background(), "u1", in); !errors.As(err, &verr) || verr.Field != "city" {
		t.Fatalf("expected city validation error, got %v", err)
	}

	a, err := svc.Create(context.Background(), "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.created.Street != "5 Rue Cler" || a.UserID != "u1" {
		t.Fatalf("unexpected create %+v / %+v", repo.created, a)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)

	if _, err := svc.Update(context.Background(), "u1", "a1", validInput()); err != nil || repo.updated != "a1" {
		t.Fatalf("update: %v", err)
	}
	repo.updateErr = domain.ErrNotFound
	if _, err := svc.Update(context.Background(), "u1", "other", validInput()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", "a1"); err != nil || repo.deleted != "a1" {
		t.Fatalf("delete: %v", err)
	}
}
