package calendar

import "go.uber.org/fx"

var Module = fx.Module("calendar",
	fx.Provide(NewResolver),
)
