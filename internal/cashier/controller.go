package cashier

import (
	"context"
	"fmt"

	"github.com/xenking/cashier/internal/domain/basket"
	"github.com/xenking/cashier/internal/domain/order"
)

// Intent names a presentation request.
type Intent string

// Intents accepted by the Controller.
const (
	IntentCheck    Intent = "check"
	IntentBuy      Intent = "buy"
	IntentBought   Intent = "bought"
	IntentDiscount Intent = "discount"
	IntentRemove   Intent = "remove"
	IntentRefresh  Intent = "refresh"
)

// Event reports the effect of an intent back to the presentation layer,
// which decides how to render it.
type Event struct {
	Intent  Intent
	Message string
	// Changed is false when the intent was a no-op.
	Changed bool
	State   State
	// Basket is the open basket after the intent, nil between customers.
	Basket *basket.Basket
	// Confirmation is set only by a successful Bought.
	Confirmation *order.Confirmation
}

// Model is the basket-owning collaborator driven by the Controller.
type Model interface {
	Check(ctx context.Context, code string, qty int) (Outcome, error)
	Buy(ctx context.Context) (Outcome, error)
	Bought(ctx context.Context) (Outcome, error)
	Basket() *basket.Basket
	State() State
}

var _ Model = (*Till)(nil)

// Controller translates till intents into model and basket operations. It
// holds no state beyond its collaborators.
type Controller struct {
	model   Model
	metrics *Metrics
}

// NewController creates a Controller. A nil metrics disables recording.
func NewController(model Model, metrics *Metrics) *Controller {
	return &Controller{model: model, metrics: metrics}
}

// DoCheck asks the model to check the availability of code.
func (c *Controller) DoCheck(ctx context.Context, code string, qty int) (Event, error) {
	out, err := c.model.Check(ctx, code, qty)
	if err != nil {
		return Event{}, err
	}
	return c.emit(ctx, IntentCheck, out), nil
}

// DoBuy asks the model to buy the checked product.
func (c *Controller) DoBuy(ctx context.Context) (Event, error) {
	out, err := c.model.Buy(ctx)
	if err != nil {
		return Event{}, err
	}
	return c.emit(ctx, IntentBuy, out), nil
}

// DoBought asks the model to take payment and submit the order.
func (c *Controller) DoBought(ctx context.Context) (Event, error) {
	out, err := c.model.Bought(ctx)
	if err != nil {
		return Event{}, err
	}
	if out.Confirmation != nil {
		c.metrics.recordSubmitted(ctx, out.Confirmation)
	}
	return c.emit(ctx, IntentBought, out), nil
}

// DoDiscount applies the basket discount policy once more to the current
// total. It is a no-op without a non-empty basket.
func (c *Controller) DoDiscount(ctx context.Context) (Event, error) {
	b := c.model.Basket()
	if b == nil || b.IsEmpty() {
		return c.emit(ctx, IntentDiscount, Outcome{}), nil
	}
	b.ApplyDiscount()
	return c.emit(ctx, IntentDiscount, Outcome{
		Message: fmt.Sprintf("Discount applied: %s%% off", b.DiscountPercent().String()),
		Changed: true,
	}), nil
}

// DoRemove removes the item at index from the basket. Out of range indexes
// and a missing basket are ignored.
func (c *Controller) DoRemove(ctx context.Context, index int) (Event, error) {
	b := c.model.Basket()
	if b == nil {
		return c.emit(ctx, IntentRemove, Outcome{}), nil
	}
	item, ok := b.RemoveAt(index)
	if !ok {
		return c.emit(ctx, IntentRemove, Outcome{}), nil
	}
	return c.emit(ctx, IntentRemove, Outcome{
		Message: fmt.Sprintf("Removed %s", item.Description),
		Changed: true,
	}), nil
}

// Refresh reports the current till state without changing it.
func (c *Controller) Refresh(ctx context.Context) Event {
	return c.emit(ctx, IntentRefresh, Outcome{})
}

func (c *Controller) emit(ctx context.Context, intent Intent, out Outcome) Event {
	e := Event{
		Intent:       intent,
		Message:      out.Message,
		Changed:      out.Changed,
		State:        c.model.State(),
		Basket:       c.model.Basket(),
		Confirmation: out.Confirmation,
	}
	c.metrics.recordIntent(ctx, e)
	return e
}
