package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/calendar"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	companyrepo "github.com/smallbiznis/timeoff/internal/company/repository"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	userrepo "github.com/smallbiznis/timeoff/internal/user/repository"
	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/smallbiznis/timeoff/pkg/usererror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

type fixture struct {
	db    *gorm.DB
	svc   *Service
	admin *userdomain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&companydomain.Company{}, &companydomain.BankHoliday{}, &companydomain.LeaveType{}, &companydomain.Schedule{},
		&userdomain.User{}, &userdomain.UserFeed{}, &userdomain.Leave{}, &userdomain.AllowanceAdjustment{},
		&auditdomain.AuditRecord{}, &authdomain.Session{},
	))

	companies := companyrepo.NewRepository(conn)
	users := userrepo.NewRepository(conn)
	ctx := context.Background()

	for _, c := range []*companydomain.Company{
		{ID: 1, Name: "Acme Ltd", Country: "GB", DateFormat: "DD/MM/YYYY", Timezone: "Europe/London", CarryOver: decimal.Zero},
		{ID: 2, Name: "Other", Country: "GB", DateFormat: "YYYY-MM-DD", Timezone: "Europe/London", CarryOver: decimal.Zero},
	} {
		require.NoError(t, companies.Companies().Create(ctx, c))
	}
	require.NoError(t, companies.LeaveTypes().BatchCreate(ctx, []*companydomain.LeaveType{
		{ID: 5, CompanyID: 1, Name: "Holiday", Color: companydomain.DefaultColor, UseAllowance: true},
		{ID: 6, CompanyID: 1, Name: "Sick", Color: companydomain.DefaultColor},
	}))
	require.NoError(t, companies.BankHolidays().Create(ctx, &companydomain.BankHoliday{ID: 7, CompanyID: 1, Name: "Good Friday", Date: date(2026, 4, 3)}))

	admin := &userdomain.User{ID: 10, CompanyID: 1, Email: "ada@example.com", Name: "Ada", Lastname: "Admin", IsAdmin: true, Activated: true}
	for _, u := range []*userdomain.User{
		admin,
		{ID: 11, CompanyID: 1, Email: "eve@example.com", Name: "Eve", Lastname: "Employee", Activated: true},
		{ID: 20, CompanyID: 2, Email: "zed@example.com", Name: "Zed", Lastname: "Other", Activated: true},
	} {
		require.NoError(t, users.Users().Create(ctx, u))
	}
	require.NoError(t, users.Leaves().BatchCreate(ctx, []*userdomain.Leave{
		// Thursday to Tuesday over Easter: Good Friday and the weekend are free.
		{ID: 30, UserID: 11, LeaveTypeID: 5, Status: userdomain.LeaveStatusApproved, DateStart: date(2026, 4, 2), DayPartStart: userdomain.DayPartAll, DateEnd: date(2026, 4, 7), DayPartEnd: userdomain.DayPartMorning, Comment: "Easter, with family"},
		{ID: 31, UserID: 11, LeaveTypeID: 6, Status: userdomain.LeaveStatusNew, DateStart: date(2026, 2, 2), DayPartStart: userdomain.DayPartAll, DateEnd: date(2026, 2, 2), DayPartEnd: userdomain.DayPartAll},
		{ID: 32, UserID: 20, LeaveTypeID: 5, Status: userdomain.LeaveStatusApproved, DateStart: date(2026, 2, 2), DayPartStart: userdomain.DayPartAll, DateEnd: date(2026, 2, 2), DayPartEnd: userdomain.DayPartAll},
	}))

	svc := New(Params{
		DB:        conn,
		Log:       zaptest.NewLogger(t),
		Companies: companies,
		Users:     users,
		Resolver:  calendar.NewResolver(calendar.ResolverParams{Companies: companies, Users: users}),
	})
	return &fixture{db: conn, svc: svc, admin: admin}
}

func TestCompanySummary(t *testing.T) {
	f := newFixture(t)

	backup, err := f.svc.CompanySummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "acme_ltd_backup.csv", backup.Filename)

	lines := strings.Split(strings.TrimSpace(string(backup.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Lastname,Name,Email address,Type of absence,Status,Started on,Ending on,Total deducted,Employee comment", lines[0])
	assert.Equal(t, "Employee,Eve,eve@example.com,Sick,new,02/02/2026,02/02/2026,0,", lines[1])
	assert.Equal(t, `Employee,Eve,eve@example.com,Holiday,approved,02/04/2026,07/04/2026,2.5,"Easter, with family"`, lines[2])
	assert.NotContains(t, string(backup.Content), "zed@example.com")
}

func TestCompanySummaryUnknownCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CompanySummary(context.Background(), 99)
	assert.ErrorIs(t, err, companydomain.ErrNotFound)
}

func TestRemoveCompanyNeedsConfirmation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RemoveCompany(context.Background(), f.admin, "Acme")
	require.ErrorIs(t, err, ErrConfirmationMismatch)
	assert.Equal(t, "Provided name confirmation does not match company one", usererror.Message(err))

	var count int64
	require.NoError(t, f.db.Model(&userdomain.User{}).Where("company_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRemoveCompanyRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RemoveCompany(context.Background(), &userdomain.User{ID: 11, CompanyID: 1}, "Acme Ltd")
	assert.True(t, usererror.Is(err))
}

func TestRemoveCompanyDeletesEverything(t *testing.T) {
	f := newFixture(t)

	removed, err := f.svc.RemoveCompany(context.Background(), f.admin, " Acme Ltd ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", removed.Name)

	count := func(model any, where string, args ...any) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Where(where, args...).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&companydomain.Company{}, "id = ?", 1))
	assert.Zero(t, count(&userdomain.User{}, "company_id = ?", 1))
	assert.Zero(t, count(&userdomain.Leave{}, "user_id IN ?", []int64{10, 11}))
	assert.Zero(t, count(&companydomain.LeaveType{}, "company_id = ?", 1))
	assert.Zero(t, count(&companydomain.BankHoliday{}, "company_id = ?", 1))

	assert.EqualValues(t, 1, count(&companydomain.Company{}, "id = ?", 2))
	assert.EqualValues(t, 1, count(&userdomain.Leave{}, "user_id = ?", 20))
}
