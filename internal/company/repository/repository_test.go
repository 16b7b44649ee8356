package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func setup(t *testing.T) domain.Repository {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Company{}, &domain.BankHoliday{}, &domain.LeaveType{}, &domain.Schedule{}))
	return NewRepository(conn)
}

func date(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestFindWithPolicyOrdersRecords(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	company := &domain.Company{ID: 1, Name: "Acme", Country: "GB", DateFormat: "YYYY-MM-DD", Timezone: "Europe/London", CarryOver: decimal.Zero}
	require.NoError(t, repo.Companies().Create(ctx, company))
	require.NoError(t, repo.BankHolidays().BatchCreate(ctx, []*domain.BankHoliday{
		{ID: 10, CompanyID: 1, Name: "Christmas", Date: date(2026, 12, 25)},
		{ID: 11, CompanyID: 1, Name: "New Year", Date: date(2026, 1, 1)},
	}))
	require.NoError(t, repo.LeaveTypes().BatchCreate(ctx, []*domain.LeaveType{
		{ID: 20, CompanyID: 1, Name: "Sick", Color: domain.DefaultColor, Limit: decimal.Zero},
		{ID: 21, CompanyID: 1, Name: "Holiday", Color: domain.DefaultColor, Limit: decimal.NewFromInt(25)},
	}))

	found, err := repo.FindWithPolicy(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.BankHolidays, 2)
	assert.Equal(t, "New Year", found.BankHolidays[0].Name)
	assert.Equal(t, "2026-01-01", found.BankHolidays[0].DateKey())
	require.Len(t, found.LeaveTypes, 2)
	assert.Equal(t, "Holiday", found.LeaveTypes[0].Name)

	missing, err := repo.FindWithPolicy(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSchedulesResolveByOwner(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	require.NoError(t, repo.Schedules().Create(ctx, domain.NewCompanySchedule(1, 100)))
	require.NoError(t, repo.Schedules().Create(ctx, domain.NewUserSchedule(2, 200)))

	companyWide, err := repo.CompanySchedule(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, companyWide)
	assert.False(t, companyWide.IsUserSpecific())

	userSpecific, err := repo.UserSchedule(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, userSpecific)
	assert.True(t, userSpecific.IsUserSpecific())

	none, err := repo.UserSchedule(ctx, 300)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestBankHolidaysBetween(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	require.NoError(t, repo.BankHolidays().BatchCreate(ctx, []*domain.BankHoliday{
		{ID: 1, CompanyID: 5, Name: "A", Date: date(2025, 12, 31)},
		{ID: 2, CompanyID: 5, Name: "B", Date: date(2026, 1, 1)},
		{ID: 3, CompanyID: 5, Name: "C", Date: date(2026, 12, 31)},
		{ID: 4, CompanyID: 6, Name: "D", Date: date(2026, 6, 1)},
	}))

	holidays, err := repo.BankHolidaysBetween(ctx, 5,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "B", holidays[0].Name)
	assert.Equal(t, "C", holidays[1].Name)
}
