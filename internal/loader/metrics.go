package loader

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
)

// Metrics records loader outcomes. A nil *Metrics records nothing.
type Metrics struct {
	settledTotal   metric.Int64Counter
	discardedTotal metric.Int64Counter
}

// NewMetrics registers loader instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	settled, err := meter.Int64Counter("showcase.loader.settled",
		metric.WithDescription("Loads applied to a view state, by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "settled counter")
	}
	discarded, err := meter.Int64Counter("showcase.loader.discarded",
		metric.WithDescription("Results dropped because a newer input superseded them"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "discarded counter")
	}
	return &Metrics{settledTotal: settled, discardedTotal: discarded}, nil
}

func (m *Metrics) settled(ctx context.Context, name string, outcome loadstate.Kind) {
	if m == nil {
		return
	}
	m.settledTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("loader", name),
		attribute.String("outcome", outcome.String()),
	))
}

func (m *Metrics) discarded(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.discardedTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("loader", name),
	))
}
