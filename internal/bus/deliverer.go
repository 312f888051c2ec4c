package bus

import (
	"context"
	"log/slog"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
)

// Deliverer is the full Connection Registry delivery contract from spec
// §2.2: "deliver message M to connection id X — succeeds locally or is
// forwarded through the pub/sub bus to the owning instance." The
// Matchmaker, Signal Relay, and Abuse Controller only ever talk to this
// interface, never to Hubber or Dispatcher directly.
type Deliverer interface {
	Deliver(ctx context.Context, ev event.Eventer)
}

type deliverer struct {
	hub        registry.Hubber
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewDeliverer(hub registry.Hubber, dispatcher Dispatcher, logger *slog.Logger) Deliverer {
	return &deliverer{hub: hub, dispatcher: dispatcher, logger: logger}
}

func (d *deliverer) Deliver(ctx context.Context, ev event.Eventer) {
	if d.hub.IsLocal(ev.GetTargetConnID()) {
		d.hub.DeliverLocal(ev.GetTargetConnID(), ev)
		return
	}
	if err := d.dispatcher.PublishDelivery(ctx, ev); err != nil {
		d.logger.Error("bus: cross-instance publish failed", "conn_id", ev.GetTargetConnID(), "err", err)
	}
}
