package sss

import (
	"context"

	"github.com/webitel/signal-matchmaker/config"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("sss",
	fx.Provide(func(cfg *config.Config, tracer trace.Tracer) (Store, error) {
		store, err := NewRedisStore(cfg.SSSAddr, cfg.SSSPassword, cfg.SSSDB)
		if err != nil {
			return nil, err
		}
		return NewTracingStore(NewBreakerStore(store), tracer), nil
	}),
	fx.Invoke(func(lc fx.Lifecycle, store Store) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return store.Close()
			},
		})
	}),
)
