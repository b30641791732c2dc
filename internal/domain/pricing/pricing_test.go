package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name         string
		base         decimal.Decimal
		percent      decimal.Decimal
		wantDiscount decimal.Decimal
		wantTotal    decimal.Decimal
	}{
		{
			name:         "10% of 25",
			base:         d("25"),
			percent:      d("10"),
			wantDiscount: d("2.5"),
			wantTotal:    d("22.5"),
		},
		{
			name:         "zero base",
			base:         decimal.Zero,
			percent:      d("10"),
			wantDiscount: decimal.Zero,
			wantTotal:    decimal.Zero,
		},
		{
			name:         "zero percent",
			base:         d("19.99"),
			percent:      decimal.Zero,
			wantDiscount: decimal.Zero,
			wantTotal:    d("19.99"),
		},
		{
			name:         "100 percent",
			base:         d("42.50"),
			percent:      d("100"),
			wantDiscount: d("42.50"),
			wantTotal:    decimal.Zero,
		},
		{
			name:         "fractional result is kept exact",
			base:         d("10.01"),
			percent:      d("10"),
			wantDiscount: d("1.001"),
			wantTotal:    d("9.009"),
		},
		{
			name:         "negative base is not discounted",
			base:         d("-5"),
			percent:      d("10"),
			wantDiscount: decimal.Zero,
			wantTotal:    d("-5"),
		},
		{
			name:         "rate above 100 takes the whole base",
			base:         d("10"),
			percent:      d("150"),
			wantDiscount: d("10"),
			wantTotal:    decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, total := Reduce(tt.base, tt.percent)
			assert.True(t, tt.wantDiscount.Equal(discount), "discount: want %s, got %s", tt.wantDiscount, discount)
			assert.True(t, tt.wantTotal.Equal(total), "total: want %s, got %s", tt.wantTotal, total)
		})
	}
}

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{Price: d("10.00"), Quantity: 2},
		{Price: d("5.00"), Quantity: 1},
		{Price: d("0.99"), Quantity: 3},
	}
	assert.True(t, d("27.97").Equal(Subtotal(lines)))
	assert.True(t, decimal.Zero.Equal(Subtotal(nil)))
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(d("15"))
	require.NoError(t, err)
	assert.True(t, d("15").Equal(p.Percent))

	_, err = NewPolicy(d("-1"))
	require.ErrorIs(t, err, ErrInvalidPercent)

	_, err = NewPolicy(d("100.01"))
	require.ErrorIs(t, err, ErrInvalidPercent)

	_, err = NewPolicy(d("100"))
	require.NoError(t, err)
}

func TestPolicy_Compound(t *testing.T) {
	p := Standard()

	assert.True(t, d("25").Equal(p.Compound(d("25"), 0)))
	assert.True(t, d("22.5").Equal(p.Compound(d("25"), 1)))
	// Compounding, not additive: 25 * 0.9 * 0.9, not 25 * 0.8.
	assert.True(t, d("20.25").Equal(p.Compound(d("25"), 2)))
	assert.False(t, d("20").Equal(p.Compound(d("25"), 2)))
}

func TestPolicy_EffectivePercent(t *testing.T) {
	p := Standard()

	assert.True(t, decimal.Zero.Equal(p.EffectivePercent(0)))
	assert.True(t, d("10").Equal(p.EffectivePercent(1)))
	assert.True(t, d("19").Equal(p.EffectivePercent(2)))
	assert.True(t, d("27.1").Equal(p.EffectivePercent(3)))
}

func TestPolicy_UnvalidatedRateNeverGoesNegative(t *testing.T) {
	p := Policy{Percent: d("150")}

	_, total := p.Apply(d("20"))
	assert.True(t, decimal.Zero.Equal(total), total.String())
	assert.True(t, decimal.Zero.Equal(p.Compound(d("20"), 3)))
}
