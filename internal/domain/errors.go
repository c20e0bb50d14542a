package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition is returned when an order status change is not allowed.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrEmptyCart is returned when an order is placed from a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock is returned when stock cannot cover a requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError reports an invalid input field. It is raised before any
// request leaves the client and mapped to 400 by the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
