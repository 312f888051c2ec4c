package conntable

import (
	"github.com/webitel/signal-matchmaker/internal/abuse"
	"go.uber.org/fx"
)

var Module = fx.Module("conntable",
	fx.Provide(
		New,
		fx.Annotate(
			func(t *Table) abuse.ConnectionLookup { return t },
			fx.As(new(abuse.ConnectionLookup)),
		),
	),
)
