// Package pricing holds the discount policy shared by basket summaries and
// explicit discount actions.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ErrInvalidPercent is returned when a discount rate lies outside [0, 100].
var ErrInvalidPercent = errors.New("discount percent must be between 0 and 100")

// StandardPercent is the promotional rate applied to every basket.
const StandardPercent = 10

// Line is a priced quantity used for subtotal calculation.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Reduce takes percent of base off base. The discount is floored at zero so
// it never becomes a surcharge, and capped at base so the total never drops
// below zero.
func Reduce(base, percent decimal.Decimal) (discount, total decimal.Decimal) {
	discount = floorAtZero(base.Mul(percent).Div(hundred))
	discount = decimal.Min(discount, floorAtZero(base))
	return discount, base.Sub(discount)
}

// Subtotal returns the sum of price * quantity across all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Policy is a flat percentage discount.
type Policy struct {
	Percent decimal.Decimal
}

// NewPolicy validates percent and returns the matching Policy.
func NewPolicy(percent decimal.Decimal) (Policy, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return Policy{}, errors.Wrapf(ErrInvalidPercent, "got %s", percent)
	}
	return Policy{Percent: percent}, nil
}

// Standard returns the 10% promotional policy.
func Standard() Policy {
	return Policy{Percent: decimal.NewFromInt(StandardPercent)}
}

// Apply reduces base once.
func (p Policy) Apply(base decimal.Decimal) (discount, total decimal.Decimal) {
	return Reduce(base, p.Percent)
}

// Compound reduces base rounds times, each reduction taken from the result
// of the previous one. Rounds below one leave base untouched.
func (p Policy) Compound(base decimal.Decimal, rounds int) decimal.Decimal {
	total := base
	for range rounds {
		_, total = Reduce(total, p.Percent)
	}
	return total
}

// EffectivePercent is the overall rate after rounds compounded reductions,
// e.g. 19 for two rounds of 10%.
func (p Policy) EffectivePercent(rounds int) decimal.Decimal {
	remaining := p.Compound(hundred, rounds)
	return hundred.Sub(remaining)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
