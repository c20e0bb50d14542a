// Package resetcode stores short-lived password reset codes keyed by email.
package resetcode

import (
	"context"
	"strings"
	"time"
)

// Store keeps at most one live code per email. Saving a new code replaces
// the previous one.
type Store interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume deletes the code and reports true when it matches the stored one.
	Consume(ctx context.Context, email, code string) (bool, error)
}

const keyPrefix = "reset:"

func key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}
