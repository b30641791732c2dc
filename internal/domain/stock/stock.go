// Package stock defines the stock collaborator consulted by the cashier when
// checking and buying products.
package stock

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product code is not in the catalogue.
var ErrNotFound = errors.New("product not found")

// Product is a catalogue entry together with its available stock level.
type Product struct {
	Code        string
	Description string
	Price       decimal.Decimal
	Available   int
}

// InStock reports whether qty units can be supplied.
func (p Product) InStock(qty int) bool {
	return p.Available >= qty
}

// Repository provides stock lookups and decrements.
type Repository interface {
	// Lookup returns the product with the given code or ErrNotFound.
	Lookup(ctx context.Context, code string) (*Product, error)
	// Buy removes qty units from stock. It reports false when fewer than
	// qty units are available, leaving the stock level unchanged.
	Buy(ctx context.Context, code string, qty int) (bool, error)
	// List returns the whole catalogue ordered by code.
	List(ctx context.Context) ([]Product, error)
}
