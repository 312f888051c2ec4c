package abuse

import "go.uber.org/fx"

var Module = fx.Module("abuse",
	fx.Provide(NewController),
)
