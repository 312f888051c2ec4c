package bus

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/webitel/signal-matchmaker/config"
	"go.uber.org/fx"
)

// NewBusClient is a dedicated Redis client for the Watermill stream driver,
// separate from the SSS adapter's client (internal/sss) even though both
// point at the same Redis deployment — mirrors the teacher's pattern of one
// client per concern (infra/client/di wires one gRPC connection per
// downstream service).
func NewBusClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.SSSAddr,
		Password: cfg.SSSPassword,
		DB:       cfg.SSSDB,
	})
}

// instanceID names this process's consumer group so Redis Streams fans
// every published message out to every instance, exactly as the teacher's
// RegisterHandlers builds one queue per hostname
// (internal/handler/amqp/router.go).
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return watermill.NewShortUUID()
	}
	return host
}

func NewPublisher(client *redis.Client, logger *slog.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NewSlogLogger(logger),
	)
}

func newSubscriber(client *redis.Client, logger *slog.Logger, consumerGroup string) (message.Subscriber, error) {
	return redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup,
		},
		watermill.NewSlogLogger(logger),
	)
}

// NewRouter provisions the Watermill router and ties its Run/Close to the
// fx lifecycle, grounded directly on
// internal/handler/amqp/module.go's NewWatermillRouter.
func NewRouter(lc fx.Lifecycle, logger *slog.Logger) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Error("bus: router run error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
	return router, nil
}
