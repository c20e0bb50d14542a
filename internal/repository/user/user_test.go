package user

import (
	"context"
	"errors"
	"testing"

	"jewelry-storefront/internal/db/dbtest"
	"jewelry-storefront/internal/domain"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	u, err := repo.Create(ctx, domain.User{Email: "Ada@Example.com", PasswordHash: "hash", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != domain.RoleCustomer {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := repo.Create(ctx, domain.User{Email: "ADA@example.com", PasswordHash: "x"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail: %v %+v", err, byEmail)
	}

	if err := repo.UpdatePassword(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil || byID.PasswordHash != "new-hash" {
		t.Fatalf("GetByID: %v %+v", err, byID)
	}

	if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
