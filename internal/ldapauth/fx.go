package ldapauth

import "go.uber.org/fx"

var Module = fx.Module("ldapauth",
	fx.Provide(
		fx.Annotate(New, fx.As(new(Authenticator))),
	),
)
