package bus

import "go.uber.org/fx"

var Module = fx.Module("bus",
	fx.Provide(
		NewBusClient,
		NewPublisher,
		NewDispatcher,
		NewRouter,
		NewDeliverer,
	),
)
