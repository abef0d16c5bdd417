package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the delivery state of an order. The transition is
// monotonic: placed -> delivered, never back.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order is a purchase placed by a user. UserEmail is fixed at creation
// and is the ownership key for read access. Paid and TransactionID are
// mutated only by the settlement workflow, together.
type Order struct {
	ID            uuid.UUID      `json:"id"`
	UserEmail     string         `json:"userEmail"`
	Items         map[string]any `json:"items"`
	Price         float64        `json:"price"`
	Status        OrderStatus    `json:"status"`
	Paid          bool           `json:"paid"`
	TransactionID *string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}
