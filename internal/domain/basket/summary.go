package basket

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	separator = "----------------------------"
	// Labels are padded so the amounts line up with the item column.
	totalLabel      = "Total                       "
	afterTotalLabel = "Total after Discount       "
	discountWidth   = 27
)

// Details recomputes the total price and renders the basket as a fixed-width
// receipt using the basket's currency symbol, so the printed payable amount
// is always the recorded one.
func (b *Basket) Details() string {
	b.RecomputeTotal()
	return b.Summary(b.currency)
}

// Summary renders the basket as a fixed-width receipt:
//
//	Order number: 042
//	A1     Widget         (  2) £  20.00
//	----------------------------
//	Total                       £  20.00
//	----------------------------
//	Discount (10%)             £   2.00
//	Total after Discount       £  18.00
//
// Summary does not touch the recorded total. The header is omitted while no
// order number is assigned. An empty basket
// renders no item section and no discount trailer.
func (b *Basket) Summary(currency string) string {
	var sb strings.Builder

	if b.orderNumber != 0 {
		fmt.Fprintf(&sb, "Order number: %03d\n", b.orderNumber)
	}
	if len(b.items) == 0 {
		return sb.String()
	}

	for _, item := range b.items {
		fmt.Fprintf(&sb, "%-7s%-14.14s (%3d) %s%7s\n",
			item.ProductCode, item.Description, item.Quantity, currency, money(item.Extended()))
	}

	subtotal := b.Subtotal()
	total := b.discountedTotal()

	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "%s%s%7s\n", totalLabel, currency, money(subtotal))

	sb.WriteString(separator + "\n")
	label := fmt.Sprintf("Discount (%s%%)", b.DiscountPercent().String())
	fmt.Fprintf(&sb, "%-*s%s%7s\n", discountWidth, label, currency, money(subtotal.Sub(total)))
	fmt.Fprintf(&sb, "%s%s%7s\n", afterTotalLabel, currency, money(total))

	return sb.String()
}

// money formats d with two decimals, rounding half away from zero.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
