package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedItem is one line of an order.created event payload.
type OrderCreatedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent is published after a checkout commits, for downstream
// consumers (payment, shipping).
type OrderCreatedEvent struct {
	Event       string             `json:"event"` // "order.created"
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
	Timestamp   time.Time          `json:"timestamp"`
}
