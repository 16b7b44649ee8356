package user

import (
	"github.com/smallbiznis/timeoff/internal/user/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user.repository",
	fx.Provide(repository.NewRepository),
)
