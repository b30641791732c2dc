package cashier

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/cashier/internal/domain/order"
)

// Metrics records till activity. A nil *Metrics records nothing.
type Metrics struct {
	intents    metric.Int64Counter
	submitted  metric.Int64Counter
	orderTotal metric.Float64Histogram
}

// NewMetrics registers the till instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.intents, err = meter.Int64Counter(
		"cashier.intents",
		metric.WithDescription("Till intents handled, by intent and whether the basket changed"),
		metric.WithUnit("{intent}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cashier.intents counter")
	}

	m.submitted, err = meter.Int64Counter(
		"cashier.orders.submitted",
		metric.WithDescription("Orders paid and submitted for processing"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cashier.orders.submitted counter")
	}

	m.orderTotal, err = meter.Float64Histogram(
		"cashier.order.total",
		metric.WithDescription("Payable total of submitted orders"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cashier.order.total histogram")
	}

	return m, nil
}

func (m *Metrics) recordIntent(ctx context.Context, e Event) {
	if m == nil {
		return
	}
	m.intents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", string(e.Intent)),
		attribute.Bool("changed", e.Changed),
	))
}

func (m *Metrics) recordSubmitted(ctx context.Context, c *order.Confirmation) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.orderTotal.Record(ctx, c.Total.InexactFloat64())
}
