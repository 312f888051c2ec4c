// Package bus is the cross-instance event fan-out layer: when a connection
// is not owned by this instance, an event addressed to it is published on
// the SSS's pub/sub bus so the owning instance can deliver it locally.
// Grounded on internal/adapter/pubsub/dispatcher.go's EventDispatcher and
// internal/handler/amqp/{bind,router,module}.go's Watermill Router wiring;
// the AMQP driver is swapped for watermill-redisstream (see SPEC_FULL.md,
// DESIGN.md) since this system's only external dependency is the SSS.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

// DeliveryTopic carries envelopes for connections not owned locally.
const DeliveryTopic = "signal_matchmaker.delivery.v1"

// BansTopic carries ban-set mutations so every instance can invalidate its
// local LRU cache (spec §4.5).
const BansTopic = "signal_matchmaker.bans.v1"

// Dispatcher publishes envelopes onto the bus. Grounded directly on
// eventDispatcher.Publish.
type Dispatcher interface {
	PublishDelivery(ctx context.Context, ev event.Eventer) error
	PublishBanInvalidation(ctx context.Context, ip string) error
}

type dispatcher struct {
	publisher message.Publisher
}

func NewDispatcher(pub message.Publisher) Dispatcher {
	return &dispatcher{publisher: pub}
}

func (d *dispatcher) PublishDelivery(ctx context.Context, ev event.Eventer) error {
	envelope, err := event.Encode(ev)
	if err != nil {
		return fmt.Errorf("bus: encode envelope: %w", err)
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("bus: marshal envelope: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return d.publisher.Publish(DeliveryTopic, msg)
}

func (d *dispatcher) PublishBanInvalidation(ctx context.Context, ip string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(ip))
	msg.SetContext(ctx)
	return d.publisher.Publish(BansTopic, msg)
}
