package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/internal/audit"
	"github.com/smallbiznis/timeoff/internal/auth"
	"github.com/smallbiznis/timeoff/internal/authorization"
	"github.com/smallbiznis/timeoff/internal/calendar"
	"github.com/smallbiznis/timeoff/internal/carryover"
	"github.com/smallbiznis/timeoff/internal/clock"
	"github.com/smallbiznis/timeoff/internal/company"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/export"
	"github.com/smallbiznis/timeoff/internal/feed"
	"github.com/smallbiznis/timeoff/internal/flash"
	"github.com/smallbiznis/timeoff/internal/ldapauth"
	"github.com/smallbiznis/timeoff/internal/migration"
	"github.com/smallbiznis/timeoff/internal/observability"
	"github.com/smallbiznis/timeoff/internal/ratelimit"
	"github.com/smallbiznis/timeoff/internal/reference"
	"github.com/smallbiznis/timeoff/internal/scheduler"
	"github.com/smallbiznis/timeoff/internal/server"
	"github.com/smallbiznis/timeoff/internal/settings"
	"github.com/smallbiznis/timeoff/internal/user"
	"github.com/smallbiznis/timeoff/internal/validation"
	"github.com/smallbiznis/timeoff/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Repositories
		company.Module,
		user.Module,
		reference.Module,
		audit.Module,

		// Domain services
		validation.Module,
		calendar.Module,
		carryover.Module,
		ldapauth.Module,
		auth.Module,
		authorization.Module,
		settings.Module,
		feed.Module,
		export.Module,
		flash.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
