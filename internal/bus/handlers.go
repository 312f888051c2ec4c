package bus

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
)

// LocalDeliverer is the subset of Hubber the bus needs to complete
// cross-instance delivery once an envelope reaches the owning instance.
type LocalDeliverer interface {
	DeliverLocal(connID string, ev event.Eventer) bool
}

var _ LocalDeliverer = (registry.Hubber)(nil)

// withRecover wraps a handler with the teacher's panic-recovery posture
// (internal/handler/amqp/bind.go): a panic in one message must never take
// down the consumer.
func withRecover(logger *slog.Logger, name string, fn message.NoPublishHandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("bus: handler panic recovered", "handler", name, "err", r, "stack", string(debug.Stack()))
				err = nil
			}
		}()
		return fn(msg)
	}
}

// RegisterHandlers wires both bus topics into router, using a per-instance
// consumer group so every instance sees every published message (the
// fan-out semantics the teacher achieves via per-hostname queues in
// internal/handler/amqp/router.go).
func RegisterHandlers(router *message.Router, client *redis.Client, logger *slog.Logger, hub LocalDeliverer, onBanInvalidate func(ip string)) error {
	group := "delivery." + instanceID()
	deliverySub, err := newSubscriber(client, logger, group)
	if err != nil {
		return err
	}
	router.AddNoPublisherHandler(
		"deliver-to-local-session",
		DeliveryTopic,
		deliverySub,
		withRecover(logger, "delivery", func(msg *message.Message) error {
			var envelope event.Envelope
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				logger.Warn("bus: bad envelope, dropping", "err", err)
				return nil
			}
			hub.DeliverLocal(envelope.TargetConnID, envelope.Decode())
			return nil
		}),
	)

	bansGroup := "bans." + instanceID()
	bansSub, err := newSubscriber(client, logger, bansGroup)
	if err != nil {
		return err
	}
	router.AddNoPublisherHandler(
		"invalidate-ban-cache",
		BansTopic,
		bansSub,
		withRecover(logger, "bans", func(msg *message.Message) error {
			onBanInvalidate(string(msg.Payload))
			return nil
		}),
	)

	return nil
}
