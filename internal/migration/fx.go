package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, catalog *config.BankHolidayCatalog, node *snowflake.Node, log *zap.Logger) error {
		if err := Run(conn, cfg.DBType); err != nil {
			return err
		}
		if !cfg.BootstrapDefaultCompany {
			return nil
		}
		return seed.EnsureDefaultCompany(context.Background(), conn, node, catalog, seed.Options{
			AdminEmail:    cfg.BootstrapAdminEmail,
			AdminPassword: cfg.BootstrapAdminPassword,
		}, log)
	}),
)
