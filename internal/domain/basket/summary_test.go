package basket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetails(t *testing.T) {
	b := newSampleBasket()

	want := "" +
		"A1     Widget         (  2) £  20.00\n" +
		"B2     Gadget         (  1) £   5.00\n" +
		"----------------------------\n" +
		"Total                       £  25.00\n" +
		"----------------------------\n" +
		"Discount (10%)             £   2.50\n" +
		"Total after Discount       £  22.50\n"

	assert.Equal(t, want, b.Details())
	assert.True(t, d("22.50").Equal(b.TotalPrice()))
}

func TestDetails_OrderNumberHeader(t *testing.T) {
	b := newSampleBasket()
	require.NoError(t, b.SetOrderNumber(42))

	details := b.Details()

	assert.Regexp(t, `^Order number: 042\nA1 `, details)
}

func TestDetails_TruncatesDescription(t *testing.T) {
	b := New()
	b.Add(LineItem{
		ProductCode: "0001",
		Description: "40 inch LED HD TV",
		UnitPrice:   d("269.00"),
		Quantity:    1,
	})

	details := b.Details()

	assert.Contains(t, details, "0001   40 inch LED HD (  1) £ 269.00\n")
}

func TestDetails_RecordsPrintedTotal(t *testing.T) {
	b := New()
	b.Add(LineItem{ProductCode: "A1", Description: "Widget", UnitPrice: d("10.00"), Quantity: 1})
	b.SetTotalPrice(d("100"))

	details := b.Details()

	assert.Contains(t, details, "Total after Discount       £   9.00\n")
	assert.True(t, d("9").Equal(b.TotalPrice()), b.TotalPrice().String())
	assert.True(t, d("9").Equal(b.Snapshot().Total))
	assert.True(t, d("1").Equal(b.Snapshot().Discount))
}

func TestSummary_DoesNotMutate(t *testing.T) {
	b := newSampleBasket()
	b.SetTotalPrice(d("1.00"))

	_ = b.Summary("$")

	assert.True(t, d("1.00").Equal(b.TotalPrice()))
}

func TestDetails_EmptyBasket(t *testing.T) {
	b := New()
	assert.Equal(t, "", b.Details())

	require.NoError(t, b.SetOrderNumber(5))
	assert.Equal(t, "Order number: 005\n", b.Details())
}

func TestDetails_StackedDiscountLabel(t *testing.T) {
	b := newSampleBasket()
	b.ApplyDiscount()

	details := b.Details()

	assert.Contains(t, details, "Discount (19%)             £   4.75\n")
	assert.Contains(t, details, "Total after Discount       £  20.25\n")
}

func TestSummary_Currency(t *testing.T) {
	b := New(WithCurrency("$"))
	b.Add(gadget())

	assert.Contains(t, b.Details(), "B2     Gadget         (  1) $   5.00\n")
	assert.Contains(t, b.Summary("€"), "Total after Discount       €   4.50\n")
}

func TestSummary_RoundsHalfUp(t *testing.T) {
	b := New()
	b.Add(LineItem{ProductCode: "C3", Description: "Pen", UnitPrice: d("0.05"), Quantity: 1})

	// 0.05 - 10% = 0.045, printed as 0.05; discount 0.005 printed as 0.01.
	details := b.Details()
	assert.Contains(t, details, "Discount (10%)             £   0.01\n")
	assert.Contains(t, details, "Total after Discount       £   0.05\n")
}
