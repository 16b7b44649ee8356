package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/calendar"
	"github.com/smallbiznis/timeoff/internal/clock"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	companyrepo "github.com/smallbiznis/timeoff/internal/company/repository"
	"github.com/smallbiznis/timeoff/internal/config"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	userrepo "github.com/smallbiznis/timeoff/internal/user/repository"
	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
)

type fixture struct {
	gen   *Generator
	users userdomain.Repository
}

func date(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&companydomain.Company{}, &companydomain.BankHoliday{}, &companydomain.LeaveType{}, &companydomain.Schedule{},
		&userdomain.User{}, &userdomain.UserFeed{}, &userdomain.Leave{},
	))

	companies := companyrepo.NewRepository(conn)
	users := userrepo.NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, companies.Companies().Create(ctx, &companydomain.Company{
		ID: 1, Name: "Acme", Country: "GB", DateFormat: "YYYY-MM-DD", Timezone: "Europe/London",
		CarryOver: decimal.Zero,
	}))
	require.NoError(t, companies.LeaveTypes().Create(ctx, &companydomain.LeaveType{
		ID: 5, CompanyID: 1, Name: "Holiday", Color: companydomain.DefaultColor, UseAllowance: true,
	}))
	for _, u := range []*userdomain.User{
		{ID: 10, CompanyID: 1, Email: "jane@example.com", Name: "Jane", Lastname: "Doe", Activated: true, StartDate: date(2020, 1, 1)},
		{ID: 11, CompanyID: 1, Email: "john@example.com", Name: "John", Lastname: "Roe", Activated: true, StartDate: date(2020, 1, 1)},
	} {
		require.NoError(t, users.Users().Create(ctx, u))
	}
	require.NoError(t, users.Feeds().BatchCreate(ctx, []*userdomain.UserFeed{
		{ID: 20, UserID: 10, Name: "Calendar", FeedToken: "personal-token", Type: userdomain.FeedTypeCalendar},
		{ID: 21, UserID: 10, Name: "Team", FeedToken: "team-token", Type: userdomain.FeedTypeTeamView},
	}))

	gen := New(Params{
		Log:       zaptest.NewLogger(t),
		Cfg:       config.Config{FeedDomain: "example.com"},
		Clock:     clock.NewFakeClock(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)),
		Companies: companies,
		Users:     users,
		Resolver:  calendar.NewResolver(calendar.ResolverParams{Companies: companies, Users: users}),
	})
	return &fixture{gen: gen, users: users}
}

func (f *fixture) addLeave(t *testing.T, id, userID int64, start, end datatypes.Date, startPart, endPart userdomain.DayPart, status userdomain.LeaveStatus) {
	t.Helper()
	require.NoError(t, f.users.Leaves().Create(context.Background(), &userdomain.Leave{
		ID: snowflakeID(id), UserID: snowflakeID(userID), LeaveTypeID: 5, Status: status,
		DateStart: start, DayPartStart: startPart, DateEnd: end, DayPartEnd: endPart,
	}))
}

func TestGenerateUnknownToken(t *testing.T) {
	f := newFixture(t)

	body, err := f.gen.Generate(context.Background(), "missing")
	assert.ErrorIs(t, err, userdomain.ErrUnknownToken)
	assert.Empty(t, body)
	assert.Equal(t, "N/A", FailureBody())
}

func TestGeneratePersonalMorningOnly(t *testing.T) {
	f := newFixture(t)
	f.addLeave(t, 30, 10, date(2026, 3, 10), date(2026, 3, 10), userdomain.DayPartMorning, userdomain.DayPartMorning, userdomain.LeaveStatusApproved)

	body, err := f.gen.Generate(context.Background(), "personal-token")
	require.NoError(t, err)

	assert.Contains(t, body, "X-WR-CALNAME:Jane Doe calendar")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "DTSTART:20260310T090000Z")
	assert.Contains(t, body, "DTEND:20260310T130000Z")
	assert.Contains(t, body, "SUMMARY:Jane Doe is out of office")
	assert.Contains(t, body, "UID:10-2026-03-10@example.com")
}

func TestGeneratePersonalSkipsHiddenAndOtherYears(t *testing.T) {
	f := newFixture(t)
	// Wednesday to the following Monday: the weekend is not a working day.
	f.addLeave(t, 30, 10, date(2026, 6, 3), date(2026, 6, 8), userdomain.DayPartAfternoon, userdomain.DayPartAll, userdomain.LeaveStatusNew)
	f.addLeave(t, 31, 10, date(2026, 7, 1), date(2026, 7, 1), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusRejected)
	f.addLeave(t, 32, 10, date(2027, 1, 4), date(2027, 1, 4), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusApproved)

	body, err := f.gen.Generate(context.Background(), "personal-token")
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "DTSTART:20260603T130000Z")
	assert.Contains(t, body, "DTEND:20260603T170000Z")
	assert.Contains(t, body, "DTSTART:20260608T090000Z")
	assert.Contains(t, body, "DTEND:20260608T170000Z")
	assert.NotContains(t, body, "20260606")
	assert.NotContains(t, body, "20260701")
	assert.NotContains(t, body, "20270104")
}

func TestGenerateTeamCoversSevenMonths(t *testing.T) {
	f := newFixture(t)
	f.addLeave(t, 30, 10, date(2026, 3, 2), date(2026, 3, 2), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusApproved)
	f.addLeave(t, 31, 11, date(2026, 9, 30), date(2026, 9, 30), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusApproved)
	f.addLeave(t, 32, 11, date(2026, 10, 1), date(2026, 10, 1), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusApproved)
	f.addLeave(t, 33, 11, date(2026, 2, 27), date(2026, 2, 27), userdomain.DayPartAll, userdomain.DayPartAll, userdomain.LeaveStatusApproved)

	body, err := f.gen.Generate(context.Background(), "team-token")
	require.NoError(t, err)

	assert.Contains(t, body, "X-WR-CALNAME:Jane Doe team")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Jane Doe is out of office")
	assert.Contains(t, body, "SUMMARY:John Roe is out of office")
	assert.NotContains(t, body, "20261001")
	assert.NotContains(t, body, "20260227")
}

func TestWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		morning    bool
		afternoon  bool
		start, end int
		ok         bool
	}{
		{name: "full day", morning: true, afternoon: true, start: 9, end: 17, ok: true},
		{name: "afternoon", afternoon: true, start: 13, end: 17, ok: true},
		{name: "morning", morning: true, start: 9, end: 13, ok: true},
		{name: "none"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := Window(calendar.Day{Date: day, Morning: tc.morning, Afternoon: tc.afternoon})
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, day.Add(time.Duration(tc.start)*time.Hour), start)
			assert.Equal(t, day.Add(time.Duration(tc.end)*time.Hour), end)
		})
	}
}

func snowflakeID(v int64) snowflake.ID { return snowflake.ID(v) }
