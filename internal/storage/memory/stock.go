// Package memory provides in-memory stock and order stores for local runs
// and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/cashier/internal/domain/stock"
)

var _ stock.Repository = (*StockRepository)(nil)

// StockRepository keeps the catalogue in a map keyed by product code.
type StockRepository struct {
	mu       sync.RWMutex
	products map[string]stock.Product
}

// NewStockRepository returns a repository seeded with products.
func NewStockRepository(products ...stock.Product) *StockRepository {
	r := &StockRepository{products: make(map[string]stock.Product, len(products))}
	for _, p := range products {
		r.products[p.Code] = p
	}
	return r
}

// Upsert inserts or replaces a product.
func (r *StockRepository) Upsert(_ context.Context, p stock.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.Code] = p
	return nil
}

// Lookup returns the product with the given code.
func (r *StockRepository) Lookup(_ context.Context, code string) (*stock.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[code]
	if !ok {
		return nil, stock.ErrNotFound
	}
	return &p, nil
}

// Buy decrements the stock level of code by qty when enough is available.
func (r *StockRepository) Buy(_ context.Context, code string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[code]
	if !ok {
		return false, stock.ErrNotFound
	}
	if !p.InStock(qty) {
		return false, nil
	}
	p.Available -= qty
	r.products[code] = p
	return true, nil
}

// List returns all products ordered by code.
func (r *StockRepository) List(_ context.Context) ([]stock.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]stock.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b stock.Product) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out, nil
}
