package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/cashier/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository stores orders in submission order and hands out order
// numbers from a counter.
type OrderRepository struct {
	mu     sync.RWMutex
	last   int
	orders []order.Order
}

// NewOrderRepository returns an empty repository numbering orders from 1.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// NextNumber returns the next order number.
func (r *OrderRepository) NextNumber(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last++
	return r.last, nil
}

// Create stores a copy of o. Order numbers are unique.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.Number == o.Number {
			return errors.Errorf("order number %d already submitted", o.Number)
		}
	}
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	r.orders = append(r.orders, c)
	return nil
}

// Orders returns the stored orders in submission order.
func (r *OrderRepository) Orders() []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, len(r.orders))
	copy(out, r.orders)
	return out
}
