package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/internal/domain/stock"
)

var _ stock.Repository = (*StockRepository)(nil)

const (
	lookupStockSQL = `SELECT code, description, price, quantity FROM stock WHERE code = $1`
	listStockSQL   = `SELECT code, description, price, quantity FROM stock ORDER BY code`
	buyStockSQL    = `UPDATE stock SET quantity = quantity - $2, updated_at = now()
		WHERE code = $1 AND quantity >= $2`
	upsertStockSQL = `INSERT INTO stock (code, description, price, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			updated_at = now()`
)

// StockRepository implements stock.Repository backed by PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a StockRepository that uses the given pool.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

type stockRow struct {
	Code        string
	Description string
	Price       decimal.Decimal
	Quantity    int32
}

func (r stockRow) product() stock.Product {
	return stock.Product{
		Code:        r.Code,
		Description: r.Description,
		Price:       r.Price,
		Available:   int(r.Quantity),
	}
}

// Lookup returns the product with the given code, or stock.ErrNotFound.
func (r *StockRepository) Lookup(ctx context.Context, code string) (*stock.Product, error) {
	rows, err := r.pool.Query(ctx, lookupStockSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "query stock %q", code)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[stockRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrNotFound
		}
		return nil, errors.Wrapf(err, "scan stock %q", code)
	}

	p := row.product()
	return &p, nil
}

// Buy decrements the stock level in a single conditional update so
// concurrent tills cannot oversell.
func (r *StockRepository) Buy(ctx context.Context, code string, qty int) (bool, error) {
	tag, err := r.pool.Exec(ctx, buyStockSQL, code, qty)
	if err != nil {
		return false, errors.Wrapf(err, "buy %d of %q", qty, code)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Distinguish a shortage from an unknown code.
	if _, err := r.Lookup(ctx, code); err != nil {
		return false, err
	}
	return false, nil
}

// List returns the whole catalogue ordered by code.
func (r *StockRepository) List(ctx context.Context) ([]stock.Product, error) {
	rows, err := r.pool.Query(ctx, listStockSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list stock")
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByPos[stockRow])
	if err != nil {
		return nil, errors.Wrap(err, "scan stock")
	}

	products := make([]stock.Product, len(scanned))
	for i, row := range scanned {
		products[i] = row.product()
	}
	return products, nil
}

// Upsert inserts a product or replaces the stored one with the same code.
func (r *StockRepository) Upsert(ctx context.Context, p stock.Product) error {
	if _, err := r.pool.Exec(ctx, upsertStockSQL, p.Code, p.Description, p.Price, p.Available); err != nil {
		return errors.Wrapf(err, "upsert stock %q", p.Code)
	}
	return nil
}

// UpsertBatch upserts products in one round trip.
func (r *StockRepository) UpsertBatch(ctx context.Context, products []stock.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertStockSQL, p.Code, p.Description, p.Price, p.Available)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrapf(err, "upsert %d products", len(products))
	}
	return nil
}
