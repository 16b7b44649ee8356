package carryover

import "go.uber.org/fx"

var Module = fx.Module("carryover",
	fx.Provide(New),
)
