// Package feed renders a user's absences, or the absences of their team, as
// an iCalendar document addressed by an opaque feed token.
package feed

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/cockroachdb/errors"
	"github.com/smallbiznis/timeoff/internal/calendar"
	"github.com/smallbiznis/timeoff/internal/clock"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/observability/metrics"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	teamMonths = 7
	productID  = "-//timeoff//feed//EN"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Clock     clock.Clock
	Companies companydomain.Repository
	Users     userdomain.Repository
	Resolver  *calendar.Resolver
	Metrics   *metrics.Metrics `optional:"true"`
}

type Generator struct {
	log       *zap.Logger
	domain    string
	clock     clock.Clock
	companies companydomain.Repository
	users     userdomain.Repository
	resolver  *calendar.Resolver
	metrics   *metrics.Metrics
}

func New(p Params) *Generator {
	domain := p.Cfg.FeedDomain
	if domain == "" {
		domain = "timeoff.management"
	}
	return &Generator{
		log:       p.Log.Named("feed"),
		domain:    domain,
		clock:     p.Clock,
		companies: p.Companies,
		users:     p.Users,
		resolver:  p.Resolver,
		metrics:   p.Metrics,
	}
}

// FailureBody is what a feed request answers with when the calendar cannot
// be produced.
func FailureBody() string {
	return "N/A"
}

// absence is one resolved leave day with the name of whoever is away.
type absence struct {
	day  calendar.Day
	name string
}

// Generate renders the calendar behind token.
func (g *Generator) Generate(ctx context.Context, token string) (string, error) {
	feed, err := g.users.FindFeedByToken(ctx, token)
	if err != nil {
		g.metrics.RecordFeedRequest(ctx, "unknown", "failed")
		return "", errors.Wrap(err, "find feed")
	}
	if feed == nil || feed.User == nil {
		g.metrics.RecordFeedRequest(ctx, "unknown", "failed")
		return "", userdomain.ErrUnknownToken
	}

	owner := feed.User
	company, err := g.companies.FindByID(ctx, owner.CompanyID)
	if err != nil {
		g.metrics.RecordFeedRequest(ctx, string(feed.Type), "failed")
		return "", errors.Wrap(err, "load company")
	}
	if company == nil {
		g.metrics.RecordFeedRequest(ctx, string(feed.Type), "failed")
		return "", companydomain.ErrNotFound
	}

	today := company.Today(g.clock.Now())

	var (
		name     string
		absences []absence
	)
	if feed.IsCalendar() {
		name = owner.FullName() + " calendar"
		absences, err = g.personal(ctx, company, owner, today)
	} else {
		name = owner.FullName() + " team"
		absences, err = g.team(ctx, company, owner, today)
	}
	if err != nil {
		g.metrics.RecordFeedRequest(ctx, string(feed.Type), "failed")
		return "", err
	}

	g.metrics.RecordFeedRequest(ctx, string(feed.Type), "succeeded")
	return g.render(name, absences, g.clock.Now()), nil
}

func (g *Generator) personal(ctx context.Context, company *companydomain.Company, owner *userdomain.User, today time.Time) ([]absence, error) {
	from, to := calendar.YearRange(today.Year())
	days, err := g.resolver.LeaveDays(ctx, company, []*userdomain.User{owner}, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "resolve personal calendar")
	}

	out := make([]absence, 0, len(days[owner.ID]))
	for _, day := range days[owner.ID] {
		out = append(out, absence{day: day, name: owner.FullName()})
	}
	return out, nil
}

// team walks teamMonths calendar months starting with the current one. The
// team is evaluated per month so leavers drop out of later months.
func (g *Generator) team(ctx context.Context, company *companydomain.Company, viewer *userdomain.User, today time.Time) ([]absence, error) {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []absence
	for delta := range teamMonths {
		from := first.AddDate(0, delta, 0)
		to := from.AddDate(0, 1, -1)

		members, err := g.resolver.Team(ctx, company, viewer, from)
		if err != nil {
			return nil, errors.Wrapf(err, "team for %s", from.Format("2006-01"))
		}
		days, err := g.resolver.LeaveDays(ctx, company, members, from, to)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve team calendar for %s", from.Format("2006-01"))
		}
		for _, member := range members {
			for _, day := range days[member.ID] {
				out = append(out, absence{day: day, name: member.FullName()})
			}
		}
	}
	return out, nil
}

func (g *Generator) render(name string, absences []absence, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	stamp := now.UTC()
	for _, a := range absences {
		start, end, ok := Window(a.day)
		if !ok {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("%s-%s@%s", a.day.UserID, a.day.Date.Format(companydomain.ISODateLayout), g.domain))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(a.name + " is out of office")
	}
	return cal.Serialize()
}

// Window maps a leave day to its event time range in UTC: the whole working
// day, or its morning or afternoon half. ok is false for days without leave.
func Window(day calendar.Day) (start, end time.Time, ok bool) {
	base := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, time.UTC)
	at := func(hour int) time.Time { return base.Add(time.Duration(hour) * time.Hour) }

	switch {
	case day.IsFullDay():
		return at(9), at(17), true
	case day.IsAfternoonOnly():
		return at(13), at(17), true
	case day.IsMorningOnly():
		return at(9), at(13), true
	default:
		return time.Time{}, time.Time{}, false
	}
}
