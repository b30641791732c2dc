// Package cashier sequences a purchase at the till: check availability, buy
// into the basket, pay. The Till model owns the basket and the purchase state;
// the Controller turns presentation intents into model and basket calls and
// reports the outcome as an Event.
package cashier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/cashier/internal/domain/basket"
	"github.com/xenking/cashier/internal/domain/order"
	"github.com/xenking/cashier/internal/domain/stock"
)

// Till messages.
const (
	msgUnknownProduct = "Unknown product number %s"
	msgNotInStock     = "%s not in stock"
	msgCheckFirst     = "Please check its availability"
	msgPurchased      = "Purchased %s"
	msgBuyShortage    = "!!! Not in stock"
	msgNothingToPay   = "No items to pay for"
	msgNextCustomer   = "Next customer"
)

// State is the position of a till in the purchase flow.
type State int

const (
	// StateIdle waits for a product to be checked.
	StateIdle State = iota
	// StateChecking is held while a stock lookup is in progress.
	StateChecking
	// StateChecked holds an available product ready to be bought.
	StateChecked
	// StateBought has at least one purchased item awaiting payment.
	StateBought
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateChecked:
		return "checked"
	case StateBought:
		return "bought"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of a model step.
type Outcome struct {
	Message string
	// Changed is set when the basket was mutated.
	Changed      bool
	Confirmation *order.Confirmation
}

// Till is the basket-owning model of one till. It is not safe for
// concurrent use.
type Till struct {
	stock  stock.Repository
	orders order.Processor
	tracer trace.Tracer

	currency   string
	basketOpts []basket.Option

	state   State
	checked *basket.LineItem
	basket  *basket.Basket
}

// TillOption configures a Till.
type TillOption func(*Till)

// WithCurrency sets the currency symbol for till messages and baskets.
func WithCurrency(symbol string) TillOption {
	return func(m *Till) {
		m.currency = symbol
		m.basketOpts = append(m.basketOpts, basket.WithCurrency(symbol))
	}
}

// WithBasketOptions passes options to every basket the model opens.
func WithBasketOptions(opts ...basket.Option) TillOption {
	return func(m *Till) {
		m.basketOpts = append(m.basketOpts, opts...)
	}
}

// WithTracer sets the tracer used for purchase steps.
func WithTracer(tracer trace.Tracer) TillOption {
	return func(m *Till) {
		m.tracer = tracer
	}
}

// NewTill creates an idle Till with no open basket.
func NewTill(st stock.Repository, orders order.Processor, opts ...TillOption) *Till {
	m := &Till{
		stock:    st,
		orders:   orders,
		tracer:   noop.NewTracerProvider().Tracer(""),
		currency: basket.DefaultCurrency,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current purchase state. A till whose basket was emptied
// by removals reports idle.
func (m *Till) State() State {
	if m.state == StateBought {
		return m.restState()
	}
	return m.state
}

// Basket returns the open basket, or nil between customers.
func (m *Till) Basket() *basket.Basket {
	return m.basket
}

// Checked returns the product awaiting purchase, if any.
func (m *Till) Checked() (basket.LineItem, bool) {
	if m.checked == nil {
		return basket.LineItem{}, false
	}
	return *m.checked, true
}

// Check looks up code and, when qty units are available, holds the product
// for the next Buy. A quantity below one is treated as one.
func (m *Till) Check(ctx context.Context, code string, qty int) (Outcome, error) {
	code = strings.TrimSpace(code)
	if qty < 1 {
		qty = 1
	}

	ctx, span := m.tracer.Start(ctx, "cashier.Check", trace.WithAttributes(
		attribute.String("product.code", code),
		attribute.Int("product.quantity", qty),
	))
	defer span.End()

	m.state = StateChecking
	m.checked = nil

	p, err := m.stock.Lookup(ctx, code)
	if err != nil {
		m.state = m.restState()
		if errors.Is(err, stock.ErrNotFound) {
			return Outcome{Message: fmt.Sprintf(msgUnknownProduct, code)}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return Outcome{}, errors.Wrapf(err, "lookup %s", code)
	}

	if !p.InStock(qty) {
		m.state = m.restState()
		return Outcome{Message: fmt.Sprintf(msgNotInStock, p.Description)}, nil
	}

	m.checked = &basket.LineItem{
		ProductCode: p.Code,
		Description: p.Description,
		UnitPrice:   p.Price,
		Quantity:    qty,
	}
	m.state = StateChecked

	return Outcome{
		Message: fmt.Sprintf("%s : %s%7s (%2d)", p.Description, m.currency, p.Price.StringFixed(2), p.Available),
	}, nil
}

// Buy takes the checked product out of stock and adds it to the basket,
// opening a numbered basket first when none is open.
func (m *Till) Buy(ctx context.Context) (Outcome, error) {
	if m.state != StateChecked || m.checked == nil {
		return Outcome{Message: msgCheckFirst}, nil
	}
	item := *m.checked

	ctx, span := m.tracer.Start(ctx, "cashier.Buy", trace.WithAttributes(
		attribute.String("product.code", item.ProductCode),
		attribute.Int("product.quantity", item.Quantity),
	))
	defer span.End()

	if err := m.openBasket(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open basket failed")
		return Outcome{}, err
	}

	ok, err := m.stock.Buy(ctx, item.ProductCode, item.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "buy stock failed")
		return Outcome{}, errors.Wrapf(err, "buy %s", item.ProductCode)
	}

	m.checked = nil
	if !ok {
		m.state = m.restState()
		return Outcome{Message: msgBuyShortage}, nil
	}

	m.basket.Add(item)
	m.state = StateBought
	return Outcome{Message: fmt.Sprintf(msgPurchased, item.Description), Changed: true}, nil
}

// Bought submits the basket for processing and clears the till for the next
// customer.
func (m *Till) Bought(ctx context.Context) (Outcome, error) {
	if m.basket == nil || m.basket.IsEmpty() {
		return Outcome{Message: msgNothingToPay}, nil
	}

	ctx, span := m.tracer.Start(ctx, "cashier.Bought", trace.WithAttributes(
		attribute.Int("order.number", m.basket.OrderNumber()),
		attribute.Int("order.items", m.basket.Len()),
	))
	defer span.End()

	conf, err := m.orders.Submit(ctx, m.basket.Snapshot())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return Outcome{}, errors.Wrap(err, "submit order")
	}

	m.basket = nil
	m.checked = nil
	m.state = StateIdle
	return Outcome{Message: msgNextCustomer, Changed: true, Confirmation: conf}, nil
}

// restState is the state a till settles in when a step does not advance:
// bought while the basket holds items, idle otherwise.
func (m *Till) restState() State {
	if m.basket != nil && !m.basket.IsEmpty() {
		return StateBought
	}
	return StateIdle
}

// openBasket opens a basket with a fresh order number unless one is open.
func (m *Till) openBasket(ctx context.Context) error {
	if m.basket != nil {
		return nil
	}
	n, err := m.orders.UniqueNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "allocate order number")
	}
	b := basket.New(m.basketOpts...)
	if err := b.SetOrderNumber(n); err != nil {
		return errors.Wrap(err, "open basket")
	}
	m.basket = b
	return nil
}
