package basket

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cashier/internal/domain/pricing"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func widget() LineItem {
	return LineItem{ProductCode: "A1", Description: "Widget", UnitPrice: d("10.00"), Quantity: 2}
}

func gadget() LineItem {
	return LineItem{ProductCode: "B2", Description: "Gadget", UnitPrice: d("5.00"), Quantity: 1}
}

func newSampleBasket() *Basket {
	b := New()
	b.Add(widget())
	b.Add(gadget())
	return b
}

func codes(b *Basket) []string {
	var out []string
	for _, item := range b.Items() {
		out = append(out, item.ProductCode)
	}
	return out
}

func TestNew(t *testing.T) {
	b := New()

	assert.Equal(t, 0, b.OrderNumber())
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Len())
	assert.True(t, decimal.Zero.Equal(b.TotalPrice()))
	assert.Equal(t, DefaultCurrency, b.currency)
	assert.True(t, pricing.Standard().Percent.Equal(b.policy.Percent))
}

func TestAdd_PreservesOrderAndDuplicates(t *testing.T) {
	b := New()

	assert.True(t, b.Add(widget()))
	assert.True(t, b.Add(gadget()))
	assert.True(t, b.Add(widget()))

	assert.Equal(t, []string{"A1", "B2", "A1"}, codes(b))
}

func TestAdd_RecomputesTotal(t *testing.T) {
	b := newSampleBasket()

	assert.True(t, d("25.00").Equal(b.Subtotal()))
	assert.True(t, d("22.50").Equal(b.TotalPrice()))
	assert.True(t, d("2.50").Equal(b.Discount()))
}

func TestTotalMatchesSubtotalMinusTenPercent(t *testing.T) {
	items := []LineItem{
		{ProductCode: "C3", Description: "Kettle", UnitPrice: d("19.99"), Quantity: 1},
		{ProductCode: "D4", Description: "Toaster", UnitPrice: d("24.49"), Quantity: 3},
		{ProductCode: "E5", Description: "Mug", UnitPrice: d("0.01"), Quantity: 7},
	}

	b := New()
	want := decimal.Zero
	for _, item := range items {
		b.Add(item)
		want = want.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))

		assert.True(t, want.Equal(b.Subtotal()))
		assert.True(t, want.Mul(d("0.9")).Equal(b.TotalPrice()), "total %s", b.TotalPrice())
	}
}

func TestRemoveItem(t *testing.T) {
	b := newSampleBasket()

	assert.False(t, b.RemoveItem("Z9"))
	assert.Equal(t, []string{"A1", "B2"}, codes(b))

	assert.True(t, b.RemoveItem("A1"))
	assert.Equal(t, []string{"B2"}, codes(b))
	assert.True(t, d("4.50").Equal(b.TotalPrice()))
}

func TestRemoveItem_FirstOccurrenceOnly(t *testing.T) {
	b := New()
	first := widget()
	second := widget()
	second.Quantity = 5
	b.Add(first)
	b.Add(gadget())
	b.Add(second)

	require.True(t, b.RemoveItem("A1"))

	items := b.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "B2", items[0].ProductCode)
	assert.Equal(t, "A1", items[1].ProductCode)
	assert.Equal(t, 5, items[1].Quantity)
}

func TestRemoveItem_EmptyBasket(t *testing.T) {
	b := New()
	assert.False(t, b.RemoveItem("A1"))
	assert.True(t, b.IsEmpty())
}

func TestRemoveAt(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantOK    bool
		wantCodes []string
	}{
		{name: "first", index: 0, wantOK: true, wantCodes: []string{"B2"}},
		{name: "last", index: 1, wantOK: true, wantCodes: []string{"A1"}},
		{name: "negative", index: -1, wantOK: false, wantCodes: []string{"A1", "B2"}},
		{name: "past end", index: 2, wantOK: false, wantCodes: []string{"A1", "B2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSampleBasket()
			_, ok := b.RemoveAt(tt.index)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCodes, codes(b))
		})
	}
}

func TestItems_ReturnsCopy(t *testing.T) {
	b := newSampleBasket()

	items := b.Items()
	items[0].ProductCode = "XX"

	assert.Equal(t, []string{"A1", "B2"}, codes(b))
}

func TestApplyDiscount_Compounds(t *testing.T) {
	b := newSampleBasket()
	start := b.TotalPrice()

	b.ApplyDiscount()
	b.ApplyDiscount()

	assert.True(t, start.Mul(d("0.9")).Mul(d("0.9")).Equal(b.TotalPrice()))
	assert.False(t, start.Mul(d("0.8")).Equal(b.TotalPrice()))
	assert.True(t, d("18.225").Equal(b.TotalPrice()))
}

func TestApplyDiscount_EmptyBasket(t *testing.T) {
	b := New()
	b.ApplyDiscount()

	assert.True(t, decimal.Zero.Equal(b.TotalPrice()))
	assert.True(t, d("10").Equal(b.DiscountPercent()))

	b.Add(LineItem{ProductCode: "A1", Description: "Widget", UnitPrice: d("10.00"), Quantity: 1})

	assert.True(t, d("9").Equal(b.TotalPrice()), b.TotalPrice().String())
	assert.True(t, d("10").Equal(b.DiscountPercent()))
	assert.Contains(t, b.Details(), "Discount (10%)             £   1.00\n")
}

func TestApplyDiscount_SurvivesRecompute(t *testing.T) {
	b := newSampleBasket()
	b.ApplyDiscount()

	b.RecomputeTotal()
	assert.True(t, d("20.25").Equal(b.TotalPrice()))

	// Adding an item keeps the stacked discount: 30 * 0.9 * 0.9.
	b.Add(LineItem{ProductCode: "C3", Description: "Gizmo", UnitPrice: d("5.00"), Quantity: 1})
	assert.True(t, d("24.30").Equal(b.TotalPrice()))
	assert.True(t, d("19").Equal(b.DiscountPercent()))
}

func TestApplyDiscount_UsesCurrentTotal(t *testing.T) {
	b := newSampleBasket()
	b.SetTotalPrice(d("100"))

	b.ApplyDiscount()

	assert.True(t, d("90").Equal(b.TotalPrice()))
}

func TestSetTotalPrice_ReplacedOnRecompute(t *testing.T) {
	b := newSampleBasket()
	b.SetTotalPrice(d("1.23"))
	assert.True(t, d("1.23").Equal(b.TotalPrice()))

	b.RecomputeTotal()
	assert.True(t, d("22.50").Equal(b.TotalPrice()))
}

func TestSetOrderNumber(t *testing.T) {
	b := New()

	require.NoError(t, b.SetOrderNumber(42))
	assert.Equal(t, 42, b.OrderNumber())

	require.NoError(t, b.SetOrderNumber(42), "same number is a no-op")

	err := b.SetOrderNumber(43)
	require.ErrorIs(t, err, ErrOrderNumberAssigned)
	assert.Equal(t, 42, b.OrderNumber())
}

func TestSetOrderNumber_Invalid(t *testing.T) {
	b := New()

	require.ErrorIs(t, b.SetOrderNumber(0), ErrInvalidOrderNumber)
	require.ErrorIs(t, b.SetOrderNumber(-3), ErrInvalidOrderNumber)
	assert.Equal(t, 0, b.OrderNumber())
}

func TestWithPolicy(t *testing.T) {
	p, err := pricing.NewPolicy(d("20"))
	require.NoError(t, err)

	b := New(WithPolicy(p))
	b.Add(widget())

	assert.True(t, d("16.00").Equal(b.TotalPrice()))
}

func TestSnapshot(t *testing.T) {
	b := newSampleBasket()
	require.NoError(t, b.SetOrderNumber(7))
	b.ApplyDiscount()

	s := b.Snapshot()

	assert.Equal(t, 7, s.OrderNumber)
	assert.Len(t, s.Items, 2)
	assert.True(t, d("25.00").Equal(s.Subtotal))
	assert.True(t, d("20.25").Equal(s.Total))
	assert.True(t, d("4.75").Equal(s.Discount))
	assert.True(t, d("19").Equal(s.DiscountPercent))

	// The snapshot does not follow later mutations.
	b.RemoveItem("A1")
	assert.Len(t, s.Items, 2)
}
