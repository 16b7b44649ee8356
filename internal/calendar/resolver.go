package calendar

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/fx"
)

type ResolverParams struct {
	fx.In

	Companies companydomain.Repository
	Users     userdomain.Repository
}

// Resolver loads schedules, holidays and leaves and resolves absence days.
type Resolver struct {
	companies companydomain.Repository
	users     userdomain.Repository
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{companies: p.Companies, users: p.Users}
}

// ScheduleFor picks the user-specific schedule, then the company schedule,
// then the default.
func (r *Resolver) ScheduleFor(ctx context.Context, company *companydomain.Company, user *userdomain.User) (*companydomain.Schedule, error) {
	if user != nil {
		own, err := r.companies.UserSchedule(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "load user schedule")
		}
		if own != nil {
			return own, nil
		}
	}
	shared, err := r.companies.CompanySchedule(ctx, company.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load company schedule")
	}
	if shared != nil {
		return shared, nil
	}
	return companydomain.DefaultSchedule(), nil
}

// LeaveDays resolves visible absences of users in [from, to], keyed by user.
func (r *Resolver) LeaveDays(ctx context.Context, company *companydomain.Company, users []*userdomain.User, from, to time.Time) (map[snowflake.ID][]Day, error) {
	return r.resolve(ctx, company, users, from, to, func(status userdomain.LeaveStatus) bool {
		return status.IsVisible()
	})
}

// DeductedDays sums approved absences of allowance-consuming leave types.
func (r *Resolver) DeductedDays(ctx context.Context, company *companydomain.Company, user *userdomain.User, from, to time.Time) (decimal.Decimal, error) {
	leaveTypes, err := r.companies.LeaveTypes().Find(ctx, &companydomain.LeaveType{CompanyID: company.ID})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "load leave types")
	}
	consuming := make(map[snowflake.ID]bool, len(leaveTypes))
	for _, lt := range leaveTypes {
		consuming[lt.ID] = lt.UseAllowance
	}

	days, err := r.resolve(ctx, company, []*userdomain.User{user}, from, to, func(status userdomain.LeaveStatus) bool {
		return status.IsApproved()
	})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, d := range days[user.ID] {
		if consuming[d.LeaveTypeID] {
			total = total.Add(d.Deduction())
		}
	}
	return total, nil
}

// Team lists whose absences viewer may see.
func (r *Resolver) Team(ctx context.Context, company *companydomain.Company, viewer *userdomain.User, at time.Time) ([]*userdomain.User, error) {
	if company.IsTeamViewHidden && !viewer.IsAdmin {
		return []*userdomain.User{viewer}, nil
	}
	all, err := r.users.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list company users")
	}
	team := make([]*userdomain.User, 0, len(all))
	for _, u := range all {
		if u.IsActiveOn(at) {
			team = append(team, u)
		}
	}
	return team, nil
}

func (r *Resolver) resolve(ctx context.Context, company *companydomain.Company, users []*userdomain.User, from, to time.Time, include func(userdomain.LeaveStatus) bool) (map[snowflake.ID][]Day, error) {
	out := make(map[snowflake.ID][]Day, len(users))
	if len(users) == 0 {
		return out, nil
	}

	holidays, err := r.companies.BankHolidaysBetween(ctx, company.ID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load bank holidays")
	}
	holidaySet := HolidaySet(holidays)

	ids := make([]snowflake.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	leaves, err := r.users.LeavesOverlapping(ctx, ids, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load leaves")
	}

	byUser := make(map[snowflake.ID][]*userdomain.Leave, len(users))
	for _, leave := range leaves {
		if include(leave.Status) {
			byUser[leave.UserID] = append(byUser[leave.UserID], leave)
		}
	}

	for _, u := range users {
		schedule, err := r.ScheduleFor(ctx, company, u)
		if err != nil {
			return nil, err
		}
		out[u.ID] = Resolve(schedule, holidaySet, byUser[u.ID], from, to)
	}
	return out, nil
}
