package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/internal/domain/basket"
)

// Order represents a paid customer order.
type Order struct {
	ID        string
	Number    int
	Items     []Item
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Item represents a single line item of a paid order.
type Item struct {
	ProductCode string          `json:"product_code"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Confirmation is returned to the till once an order is accepted.
type Confirmation struct {
	ID          string
	OrderNumber int
	Total       decimal.Decimal
}

// Processor is the order-processing collaborator used by the cashier.
type Processor interface {
	// UniqueNumber allocates a fresh order number.
	UniqueNumber(ctx context.Context) (int, error)
	// Submit accepts a paid basket.
	Submit(ctx context.Context, s basket.Snapshot) (*Confirmation, error)
}

// Repository defines persistence operations for orders.
type Repository interface {
	NextNumber(ctx context.Context) (int, error)
	Create(ctx context.Context, order *Order) error
}
