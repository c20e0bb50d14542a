package domain

import (
	"strings"
	"time"
)

type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Street    string    `json:"street"`
	ZipCode   string    `json:"zipCode"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	State     string    `json:"state"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddressInput carries the editable address fields. Label is optional.
type AddressInput struct {
	Street  string `json:"street"`
	ZipCode string `json:"zipCode"`
	City    string `json:"city"`
	Country string `json:"country"`
	State   string `json:"state"`
	Label   string `json:"label,omitempty"`
}

// Validate reports the first missing required field.
func (in AddressInput) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"street", in.Street},
		{"zipCode", in.ZipCode},
		{"city", in.City},
		{"country", in.Country},
		{"state", in.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Invalid(r.field, "required")
		}
	}
	return nil
}
