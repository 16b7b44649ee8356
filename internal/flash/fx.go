package flash

import "go.uber.org/fx"

var Module = fx.Module("flash",
	fx.Provide(NewStore),
	fx.Provide(NewManager),
)
