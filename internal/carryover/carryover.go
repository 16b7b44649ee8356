// Package carryover moves unused allowance from one leave year into the next.
package carryover

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/calendar"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/observability/metrics"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentUsers = 5

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Users    userdomain.Repository
	Resolver *calendar.Resolver
	Metrics  *metrics.Metrics `optional:"true"`
}

type Calculator struct {
	log      *zap.Logger
	genID    *snowflake.Node
	users    userdomain.Repository
	resolver *calendar.Resolver
	metrics  *metrics.Metrics
}

func New(p Params) *Calculator {
	return &Calculator{
		log:      p.Log.Named("carryover"),
		genID:    p.GenID,
		users:    p.Users,
		resolver: p.Resolver,
		metrics:  p.Metrics,
	}
}

// Outcome is the amount stored for one user.
type Outcome struct {
	UserID  snowflake.ID
	Year    int
	Carried decimal.Decimal
}

// Run computes and stores the carried over allowance of every user for year,
// from their usage in year-1. The first failure stops the batch.
func (c *Calculator) Run(ctx context.Context, company *companydomain.Company, users []*userdomain.User, year int) ([]Outcome, error) {
	if company == nil {
		return nil, companydomain.ErrNotFound
	}

	outcomes := make([]Outcome, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for i, user := range users {
		g.Go(func() error {
			carried, err := c.carryOver(gctx, company, user, year)
			if err != nil {
				return errors.Wrapf(err, "carry over for user %s", user.ID)
			}
			outcomes[i] = Outcome{UserID: user.ID, Year: year, Carried: carried}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.metrics.RecordCarryOver(ctx, "failed")
		return nil, err
	}

	c.metrics.RecordCarryOver(ctx, "succeeded")
	c.log.Info("carried over unused allowance",
		zap.String("company_id", company.ID.String()),
		zap.Int("year", year),
		zap.Int("users", len(users)),
	)
	return outcomes, nil
}

// RunForToday carries into the company's current year.
func (c *Calculator) RunForToday(ctx context.Context, company *companydomain.Company, users []*userdomain.User, now time.Time) ([]Outcome, error) {
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	return c.Run(ctx, company, users, company.Today(now).Year())
}

func (c *Calculator) carryOver(ctx context.Context, company *companydomain.Company, user *userdomain.User, year int) (decimal.Decimal, error) {
	prev := year - 1

	available := user.AnnualAllowance
	adjustment, err := c.users.AdjustmentFor(ctx, user.ID, prev)
	if err != nil {
		return decimal.Zero, err
	}
	if adjustment != nil {
		available = available.Add(adjustment.Adjustment).Add(adjustment.CarriedOverAllowance)
	}

	from, to := calendar.YearRange(prev)
	deducted, err := c.resolver.DeductedDays(ctx, company, user, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	carried := Clamp(available.Sub(deducted), company.CarryOver)
	if err := c.users.UpsertCarriedOver(ctx, c.genID.Generate(), user.ID, year, carried); err != nil {
		return decimal.Zero, err
	}
	return carried, nil
}

// Clamp limits remaining to [0, limit].
func Clamp(remaining, limit decimal.Decimal) decimal.Decimal {
	if remaining.IsNegative() || limit.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(remaining, limit)
}
