package domain

import "github.com/google/uuid"

// Product is a catalog entry. The catalog has no lifecycle; entries
// are created, listed, and deleted as-is.
type Product struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	Price             float64   `json:"price"`
	MinOrderQuantity  int       `json:"minOrderQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
}
