// Package basket implements the customer order basket: an ordered list of
// line items, an order number and a discounted total.
//
// A Basket is not safe for concurrent use; callers scope one basket to one
// order and serialise access to it.
package basket

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/internal/domain/pricing"
)

// DefaultCurrency is the symbol printed in summaries unless overridden.
const DefaultCurrency = "£"

var (
	// ErrInvalidOrderNumber is returned when an order number is not positive.
	ErrInvalidOrderNumber = errors.New("order number must be positive")
	// ErrOrderNumberAssigned is returned when a basket already carries a
	// different order number.
	ErrOrderNumberAssigned = errors.New("order number already assigned")
)

// LineItem is one product entry with a requested quantity.
type LineItem struct {
	ProductCode string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Extended returns UnitPrice * Quantity.
func (l LineItem) Extended() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Basket holds the items a customer intends to buy.
type Basket struct {
	orderNumber int
	items       []LineItem
	totalPrice  decimal.Decimal

	policy   pricing.Policy
	currency string
	// extraDiscounts counts explicit discount actions stacked on top of the
	// standard discount every basket receives.
	extraDiscounts int
}

// Option configures a Basket.
type Option func(*Basket)

// WithPolicy overrides the standard 10% discount policy.
func WithPolicy(p pricing.Policy) Option {
	return func(b *Basket) {
		b.policy = p
	}
}

// WithCurrency overrides the currency symbol used by Details.
func WithCurrency(symbol string) Option {
	return func(b *Basket) {
		b.currency = symbol
	}
}

// New returns an empty basket with no order number.
func New(opts ...Option) *Basket {
	b := &Basket{
		policy:     pricing.Standard(),
		currency:   DefaultCurrency,
		totalPrice: decimal.Zero,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// OrderNumber returns the assigned order number, or 0 when unassigned.
func (b *Basket) OrderNumber() int {
	return b.orderNumber
}

// SetOrderNumber assigns the order number. Once assigned it cannot change;
// assigning the same number again is a no-op.
func (b *Basket) SetOrderNumber(n int) error {
	if n <= 0 {
		return errors.Wrapf(ErrInvalidOrderNumber, "got %d", n)
	}
	if b.orderNumber != 0 && b.orderNumber != n {
		return errors.Wrapf(ErrOrderNumberAssigned, "have %d, got %d", b.orderNumber, n)
	}
	b.orderNumber = n
	return nil
}

// Add appends item to the end of the basket. It always succeeds.
func (b *Basket) Add(item LineItem) bool {
	b.items = append(b.items, item)
	b.RecomputeTotal()
	return true
}

// RemoveItem removes the first item with the given product code. It reports
// false and leaves the basket unchanged when no item matches.
func (b *Basket) RemoveItem(productCode string) bool {
	for i, item := range b.items {
		if item.ProductCode == productCode {
			b.removeAt(i)
			return true
		}
	}
	return false
}

// RemoveAt removes the item at index. Out of range indexes are ignored.
func (b *Basket) RemoveAt(index int) (LineItem, bool) {
	if index < 0 || index >= len(b.items) {
		return LineItem{}, false
	}
	item := b.items[index]
	b.removeAt(index)
	return item, true
}

func (b *Basket) removeAt(i int) {
	b.items = append(b.items[:i], b.items[i+1:]...)
	b.RecomputeTotal()
}

// Items returns a copy of the line items in display order.
func (b *Basket) Items() []LineItem {
	out := make([]LineItem, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of line items.
func (b *Basket) Len() int {
	return len(b.items)
}

// IsEmpty reports whether the basket has no line items.
func (b *Basket) IsEmpty() bool {
	return len(b.items) == 0
}

// Subtotal returns the pre-discount sum of all extended prices.
func (b *Basket) Subtotal() decimal.Decimal {
	lines := make([]pricing.Line, len(b.items))
	for i, item := range b.items {
		lines[i] = pricing.Line{Price: item.UnitPrice, Quantity: item.Quantity}
	}
	return pricing.Subtotal(lines)
}

// rounds is the number of policy reductions the total receives.
func (b *Basket) rounds() int {
	return 1 + b.extraDiscounts
}

// discountedTotal is the payable amount derived from the items and the
// active discount rounds.
func (b *Basket) discountedTotal() decimal.Decimal {
	return b.policy.Compound(b.Subtotal(), b.rounds())
}

// Discount returns the amount taken off the subtotal.
func (b *Basket) Discount() decimal.Decimal {
	return b.Subtotal().Sub(b.discountedTotal())
}

// DiscountPercent returns the effective discount rate.
func (b *Basket) DiscountPercent() decimal.Decimal {
	return b.policy.EffectivePercent(b.rounds())
}

// RecomputeTotal sets the total price from the items and active discounts.
// Every mutating operation calls it.
func (b *Basket) RecomputeTotal() {
	b.totalPrice = b.discountedTotal()
}

// ApplyDiscount takes the policy rate off the current total price. Repeated
// calls compound: two calls leave total * 0.9 * 0.9 under the 10% policy.
// An empty basket is left untouched.
func (b *Basket) ApplyDiscount() {
	if len(b.items) == 0 {
		return
	}
	b.extraDiscounts++
	_, b.totalPrice = b.policy.Apply(b.totalPrice)
}

// TotalPrice returns the post-discount total.
func (b *Basket) TotalPrice() decimal.Decimal {
	return b.totalPrice
}

// SetTotalPrice overrides the total price without validation. The next
// recomputation, including Details, replaces the override.
func (b *Basket) SetTotalPrice(v decimal.Decimal) {
	b.totalPrice = v
}

// Snapshot is an immutable copy of a basket handed to order processing.
type Snapshot struct {
	OrderNumber     int
	Items           []LineItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	DiscountPercent decimal.Decimal
	Total           decimal.Decimal
}

// Snapshot copies the current basket state.
func (b *Basket) Snapshot() Snapshot {
	subtotal := b.Subtotal()
	return Snapshot{
		OrderNumber:     b.orderNumber,
		Items:           b.Items(),
		Subtotal:        subtotal,
		Discount:        subtotal.Sub(b.totalPrice),
		DiscountPercent: b.DiscountPercent(),
		Total:           b.totalPrice,
	}
}
