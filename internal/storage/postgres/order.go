package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/cashier/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

const (
	nextOrderNumberSQL = `SELECT nextval('order_numbers')`
	createOrderSQL     = `INSERT INTO orders (id, order_number, items, subtotal, discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	listOrdersSQL = `SELECT id::text, order_number, items, subtotal, discount, total, created_at
		FROM orders ORDER BY order_number`
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NextNumber draws the next value of the order_numbers sequence, so numbers
// stay unique across tills and restarts.
func (r *OrderRepository) NextNumber(ctx context.Context) (int, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, nextOrderNumberSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "next order number")
	}
	return int(n), nil
}

// Create persists a new order. The order items are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, itemsJSON, o.Subtotal, o.Discount, o.Total, o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "create order %d", o.Number)
	}

	return nil
}

// List returns all stored orders by order number.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var (
			o         order.Order
			itemsJSON []byte
		)
		if err := rows.Scan(&o.ID, &o.Number, &itemsJSON, &o.Subtotal, &o.Discount, &o.Total, &o.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, errors.Wrapf(err, "unmarshal items of order %d", o.Number)
		}
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return orders, nil
}
