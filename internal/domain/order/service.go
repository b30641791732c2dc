package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/internal/domain/basket"
)

// Sentinel errors for order validation.
var (
	ErrEmptyBasket        = errors.New("basket has no items")
	ErrMissingOrderNumber = errors.New("basket has no order number")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductCode string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductCode)
}

// InvalidPriceError indicates a line item has a negative unit price.
type InvalidPriceError struct {
	ProductCode string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price must not be negative for product %s", e.ProductCode)
}

var _ Processor = (*Service)(nil)

// Service encapsulates order submission business logic.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service backed by the given Repository.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// UniqueNumber allocates the next order number from the repository.
func (s *Service) UniqueNumber(ctx context.Context) (int, error) {
	n, err := s.orders.NextNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "next order number")
	}
	return n, nil
}

// Submit validates the basket snapshot, persists it as an order, and returns
// the confirmation. Money amounts are rounded to 2 decimal places on write.
func (s *Service) Submit(ctx context.Context, snap basket.Snapshot) (*Confirmation, error) {
	if len(snap.Items) == 0 {
		return nil, ErrEmptyBasket
	}
	if snap.OrderNumber <= 0 {
		return nil, ErrMissingOrderNumber
	}

	items := make([]Item, len(snap.Items))
	for i, li := range snap.Items {
		if li.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductCode: li.ProductCode}
		}
		if li.UnitPrice.IsNegative() {
			return nil, &InvalidPriceError{ProductCode: li.ProductCode}
		}
		items[i] = Item{
			ProductCode: li.ProductCode,
			Description: li.Description,
			UnitPrice:   li.UnitPrice,
			Quantity:    li.Quantity,
		}
	}

	// Total floored at zero; a hand-set total may be out of range.
	total := snap.Total
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)
	subtotal := snap.Subtotal.Round(2)

	o := &Order{
		ID:        uuid.New().String(),
		Number:    snap.OrderNumber,
		Items:     items,
		Subtotal:  subtotal,
		Discount:  subtotal.Sub(total),
		Total:     total,
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &Confirmation{
		ID:          o.ID,
		OrderNumber: o.Number,
		Total:       o.Total,
	}, nil
}
