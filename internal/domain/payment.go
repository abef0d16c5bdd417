package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Payment is the append-only audit record of a settled transaction.
// Rows are never updated or deleted; transaction IDs are unique.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MinorUnits converts a price in major currency units to integer minor
// units (cents) for the payment processor.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
