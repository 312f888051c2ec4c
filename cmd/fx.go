package cmd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/abuse"
	"github.com/webitel/signal-matchmaker/internal/admin"
	"github.com/webitel/signal-matchmaker/internal/bus"
	"github.com/webitel/signal-matchmaker/internal/conntable"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
	"github.com/webitel/signal-matchmaker/internal/gateway"
	"github.com/webitel/signal-matchmaker/internal/matchmaker"
	"github.com/webitel/signal-matchmaker/internal/pair"
	"github.com/webitel/signal-matchmaker/internal/presence"
	"github.com/webitel/signal-matchmaker/internal/queue"
	"github.com/webitel/signal-matchmaker/internal/relay"
	"github.com/webitel/signal-matchmaker/internal/sss"
	"github.com/webitel/signal-matchmaker/internal/telemetry"
	"go.uber.org/fx"
)

// NewApp assembles the service's fx graph, grounded on the teacher's
// cmd/fx.go: one fx.Provide block for cross-cutting singletons followed by
// one fx.Module per bounded concern, closed by fx.Invoke calls that start
// the side-effecting pieces (the bus router's handlers, the two HTTP
// servers).
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
		),
		telemetry.Module,
		sss.Module,
		registry.Module,
		conntable.Module,
		presence.Module,
		queue.Module,
		pair.Module,
		bus.Module,
		matchmaker.Module,
		relay.Module,
		abuse.Module,
		gateway.Module,
		admin.Module,
		fx.Invoke(registerBusHandlers),
		fx.Invoke(runGatewayServer),
		fx.Invoke(runAdminServer),
	)
}

// registerBusHandlers wires the cross-instance delivery and ban-
// invalidation subscriptions once the router, client, and Connection
// Registry are all available.
func registerBusHandlers(router *message.Router, client *redis.Client, logger *slog.Logger, hub registry.Hubber, ac *abuse.Controller) error {
	return bus.RegisterHandlers(router, client, logger, hub, ac.InvalidateCache)
}

func runGatewayServer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, handler *gateway.Handler, hub registry.Hubber) {
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("gateway: server error", "err", err)
				}
			}()
			logger.Info("gateway: listening", "addr", cfg.ListenAddr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Shutdown()
			return srv.Shutdown(ctx)
		},
	})
}

func runAdminServer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, router http.Handler) {
	srv := &http.Server{Addr: cfg.AdminAddr, Handler: router}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("admin: server error", "err", err)
				}
			}()
			logger.Info("admin: listening", "addr", cfg.AdminAddr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
