package pair

import "go.uber.org/fx"

var Module = fx.Module("pair",
	fx.Provide(NewManager),
)
