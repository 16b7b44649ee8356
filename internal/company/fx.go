package company

import (
	"github.com/smallbiznis/timeoff/internal/company/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("company.repository",
	fx.Provide(repository.NewRepository),
)
