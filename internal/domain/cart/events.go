package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "CartItemAdded"
	EventQuantityUpdated = "CartQuantityUpdated"
	EventItemRemoved     = "CartItemRemoved"
	EventCartCleared     = "CartCleared"
	EventDiscountApplied = "CartDiscountApplied"
)

// EventPublisher broadcasts cart changes to downstream consumers. Publishing
// is best-effort; a failed publish never fails the cart operation.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type ItemAdded struct {
	CartID    string          `json:"cart_id"`
	Owner     Owner           `json:"owner"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

type QuantityUpdated struct {
	CartID    string    `json:"cart_id"`
	Owner     Owner     `json:"owner"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemRemoved struct {
	CartID    string    `json:"cart_id"`
	Owner     Owner     `json:"owner"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type Cleared struct {
	CartID    string    `json:"cart_id"`
	Owner     Owner     `json:"owner"`
	ClearedAt time.Time `json:"cleared_at"`
}

type DiscountApplied struct {
	CartID    string          `json:"cart_id"`
	Owner     Owner           `json:"owner"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
}
