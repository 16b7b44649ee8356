package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) seedBankHolidays(t *testing.T) (a, b *companydomain.BankHoliday) {
	t.Helper()
	a = &companydomain.BankHoliday{ID: 10, CompanyID: f.company.ID, Name: "Spring", Date: date(2026, 4, 3)}
	b = &companydomain.BankHoliday{ID: 11, CompanyID: f.company.ID, Name: "Summer", Date: date(2026, 8, 31)}
	require.NoError(t, f.companies.BankHolidays().BatchCreate(context.Background(), []*companydomain.BankHoliday{a, b}))
	return a, b
}

func (f *fixture) seedLeaveTypes(t *testing.T) (holiday, sick *companydomain.LeaveType) {
	t.Helper()
	holiday = &companydomain.LeaveType{ID: 20, CompanyID: f.company.ID, Name: "Holiday", Color: "leave_type_color_1", UseAllowance: true, Limit: decimal.Zero}
	sick = &companydomain.LeaveType{ID: 21, CompanyID: f.company.ID, Name: "Sick", Color: "leave_type_color_2", Limit: decimal.NewFromInt(10)}
	require.NoError(t, f.companies.LeaveTypes().BatchCreate(context.Background(), []*companydomain.LeaveType{holiday, sick}))
	return holiday, sick
}

func holidayNames(company *companydomain.Company) map[string]string {
	out := map[string]string{}
	for i := range company.BankHolidays {
		out[company.BankHolidays[i].DateKey()] = company.BankHolidays[i].Name
	}
	return out
}

func TestUpdateBankHolidaysSavesRowsAndNewRow(t *testing.T) {
	f := newFixture(t)
	a, b := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows: []domain.BankHolidayRow{
			{ID: a.ID, Name: "Good Friday", Date: "2026-04-03"},
			{ID: b.ID, Name: "Summer", Date: "2026-08-30"},
		},
		New: &domain.BankHolidayRow{Name: "Company day", Date: "2026-06-15"},
	})
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"Changes to bank holidays were saved"}, res.Messages)

	assert.Equal(t, map[string]string{
		"2026-04-03": "Good Friday",
		"2026-06-15": "Company day",
		"2026-08-30": "Summer",
	}, holidayNames(f.reload(t)))
}

func TestUpdateBankHolidaysUsesCompanyDateFormat(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.companies.Companies().Update(context.Background(), f.company, map[string]any{"date_format": "DD/MM/YYYY"}))
	a, _ := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows:  []domain.BankHolidayRow{{ID: a.ID, Name: "Spring", Date: "06/04/2026"}},
	})
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Contains(t, holidayNames(f.reload(t)), "2026-04-06")
}

func TestUpdateBankHolidaysInvalidRowCancelsAllUpdatesButNotNewRow(t *testing.T) {
	f := newFixture(t)
	a, b := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows: []domain.BankHolidayRow{
			{ID: a.ID, Name: "Renamed", Date: "2026-04-10"},
			{ID: b.ID, Name: "Summer", Date: "not a date"},
		},
		New: &domain.BankHolidayRow{Name: "Company day", Date: "2026-06-15"},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"New day for Summer should be date"}, res.Errors)
	assert.Empty(t, res.Messages)

	assert.Equal(t, map[string]string{
		"2026-04-03": "Spring",
		"2026-06-15": "Company day",
		"2026-08-31": "Summer",
	}, holidayNames(f.reload(t)))
}

func TestUpdateBankHolidaysInvalidNewRowCancelsUpdates(t *testing.T) {
	f := newFixture(t)
	a, _ := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows:  []domain.BankHolidayRow{{ID: a.ID, Name: "Renamed", Date: "2026-04-03"}},
		New:   &domain.BankHolidayRow{Name: "Company day", Date: "someday"},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"New day for New Bank Holiday should be date"}, res.Errors)

	names := holidayNames(f.reload(t))
	assert.Len(t, names, 2)
	assert.Equal(t, "Spring", names["2026-04-03"])
}

func TestUpdateBankHolidaysNewRowOnTakenDate(t *testing.T) {
	f := newFixture(t)
	a, _ := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows:  []domain.BankHolidayRow{{ID: a.ID, Name: "Good Friday", Date: "2026-04-03"}},
		New:   &domain.BankHolidayRow{Name: "Dup", Date: "2026-04-03"},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"Bank holiday date 2026-04-03 already exists"}, res.Errors)

	assert.Equal(t, map[string]string{
		"2026-04-03": "Spring",
		"2026-08-31": "Summer",
	}, holidayNames(f.reload(t)))
}

func TestUpdateBankHolidaysRowMovedOntoAnotherRowDate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.companies.Companies().Update(context.Background(), f.company, map[string]any{"date_format": "DD/MM/YYYY"}))
	a, _ := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows:  []domain.BankHolidayRow{{ID: a.ID, Name: "Spring", Date: "31/08/2026"}},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"Bank holiday date 31/08/2026 already exists"}, res.Errors)
	assert.Equal(t, "Spring", holidayNames(f.reload(t))["2026-04-03"])
}

func TestUpdateBankHolidaysSwappedDatesClash(t *testing.T) {
	f := newFixture(t)
	a, b := f.seedBankHolidays(t)

	res := f.svc.UpdateBankHolidays(context.Background(), domain.UpdateBankHolidaysRequest{
		Actor: f.actor,
		Rows: []domain.BankHolidayRow{
			{ID: a.ID, Name: "Spring", Date: "2026-08-31"},
			{ID: b.ID, Name: "Summer", Date: "2026-04-03"},
		},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"Bank holidays cannot share the same date"}, res.Errors)

	assert.Equal(t, map[string]string{
		"2026-04-03": "Spring",
		"2026-08-31": "Summer",
	}, holidayNames(f.reload(t)))
}

func TestImportBankHolidaysIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedBankHolidays(t)
	ctx := context.Background()

	res := f.svc.ImportBankHolidays(ctx, f.actor)
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"New bank holidays were added: New Year's Day, Christmas Day"}, res.Messages)

	res = f.svc.ImportBankHolidays(ctx, f.actor)
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"No more new bank holidays exist"}, res.Messages)

	company := f.reload(t)
	assert.Len(t, company.BankHolidays, 4)
	seen := map[string]bool{}
	for i := range company.BankHolidays {
		key := company.BankHolidays[i].DateKey()
		assert.False(t, seen[key], "duplicate date %s", key)
		seen[key] = true
	}
}

func TestImportBankHolidaysUnknownCountry(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.companies.Companies().Update(context.Background(), f.company, map[string]any{"country": "FR"}))

	res := f.svc.ImportBankHolidays(context.Background(), f.actor)
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{
		"There are no default bank holidays for country FR",
		"Failed to import bank holidays",
	}, res.Errors)
}

func TestDeleteBankHolidayByPosition(t *testing.T) {
	f := newFixture(t)
	f.seedBankHolidays(t)
	ctx := context.Background()

	for _, number := range []string{"abc", "-1", "2", ""} {
		res := f.svc.DeleteBankHoliday(ctx, f.actor, number)
		assert.Equal(t, domain.StateRejected, res.State, number)
		assert.Equal(t, []string{"Cannot remove bank holiday: wronge parameters"}, res.Errors, number)
	}
	assert.Len(t, f.reload(t).BankHolidays, 2)

	res := f.svc.DeleteBankHoliday(ctx, f.actor, "0")
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"Bank holiday was successfully removed"}, res.Messages)
	assert.Equal(t, map[string]string{"2026-08-31": "Summer"}, holidayNames(f.reload(t)))
}

func TestUpdateLeaveTypesLimitMustBeNonNegativeNumber(t *testing.T) {
	cases := []struct {
		limit string
		err   string
	}{
		{limit: "0"},
		{limit: "12"},
		{limit: "2.5"},
		{limit: ""},
		{limit: "-1", err: "New limit for Holiday should be positive number or 0"},
		{limit: "-0.5", err: "New limit for Holiday should be positive number or 0"},
		{limit: "ten", err: "New limit for Holiday should be a valide number"},
	}
	for _, tc := range cases {
		t.Run(tc.limit, func(t *testing.T) {
			f := newFixture(t)
			holiday, _ := f.seedLeaveTypes(t)

			res := f.svc.UpdateLeaveTypes(context.Background(), domain.UpdateLeaveTypesRequest{
				Actor: f.actor,
				Rows:  []domain.LeaveTypeRow{{ID: holiday.ID, Name: "Holiday", Color: "leave_type_color_3", Limit: tc.limit, UseAllowance: "on"}},
			})

			updated := f.reload(t).LeaveTypes[0]
			if tc.err == "" {
				assert.Equal(t, domain.StateSuccess, res.State)
				assert.Equal(t, "leave_type_color_3", updated.Color)
				return
			}
			assert.Equal(t, domain.StateRejected, res.State)
			assert.Equal(t, []string{tc.err}, res.Errors)
			assert.Equal(t, "leave_type_color_1", updated.Color)
		})
	}
}

func TestUpdateLeaveTypesNewRowAndSortOrder(t *testing.T) {
	f := newFixture(t)
	holiday, sick := f.seedLeaveTypes(t)

	res := f.svc.UpdateLeaveTypes(context.Background(), domain.UpdateLeaveTypesRequest{
		Actor: f.actor,
		Rows: []domain.LeaveTypeRow{
			{ID: holiday.ID, Name: "Holiday", Color: "leave_type_color_1", Limit: "25", UseAllowance: "on"},
			{ID: sick.ID, Name: "", Color: "bad"},
		},
		New:         &domain.LeaveTypeRow{Name: "Training", Limit: "3", AutoApprove: "true"},
		FirstRecord: holiday.ID.String(),
	})
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"Changes to leave types were saved"}, res.Messages)

	byName := map[string]companydomain.LeaveType{}
	for _, lt := range f.reload(t).LeaveTypes {
		byName[lt.Name] = lt
	}
	require.Len(t, byName, 3)
	assert.Equal(t, 1, byName["Holiday"].SortOrder)
	assert.True(t, decimal.NewFromInt(25).Equal(byName["Holiday"].Limit))
	assert.Equal(t, "leave_type_color_2", byName["Sick"].Color)
	assert.Equal(t, companydomain.DefaultColor, byName["Training"].Color)
	assert.True(t, byName["Training"].AutoApprove)
	assert.False(t, byName["Training"].UseAllowance)
	assert.Equal(t, 0, byName["Training"].SortOrder)

	var limitChanges int
	for _, r := range f.auditRecords(t, auditdomain.EntityLeaveType) {
		if r.EntityID == holiday.ID && r.Attribute == "limit" {
			limitChanges++
			assert.Equal(t, "0", r.OldValue)
			assert.Equal(t, "25", r.NewValue)
		}
	}
	assert.Equal(t, 1, limitChanges)
}

func TestUpdateLeaveTypesInvalidColorCancelsUpdatesButNotNewRow(t *testing.T) {
	f := newFixture(t)
	holiday, sick := f.seedLeaveTypes(t)

	res := f.svc.UpdateLeaveTypes(context.Background(), domain.UpdateLeaveTypesRequest{
		Actor: f.actor,
		Rows: []domain.LeaveTypeRow{
			{ID: holiday.ID, Name: "Vacation", Color: "leave_type_color_1", Limit: "0"},
			{ID: sick.ID, Name: "Sick", Color: "red", Limit: "10"},
		},
		New: &domain.LeaveTypeRow{Name: "Training", Color: "leave_type_color_4"},
	})
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"New color for Sick should be valid css class"}, res.Errors)

	names := map[string]bool{}
	for _, lt := range f.reload(t).LeaveTypes {
		names[lt.Name] = true
	}
	assert.Equal(t, map[string]bool{"Holiday": true, "Sick": true, "Training": true}, names)
}

func TestDeleteLeaveTypeInUse(t *testing.T) {
	f := newFixture(t)
	holiday, _ := f.seedLeaveTypes(t)
	ctx := context.Background()

	require.NoError(t, f.users.Leaves().Create(ctx, &userdomain.Leave{
		ID: 30, UserID: f.admin.ID, LeaveTypeID: holiday.ID, Status: userdomain.LeaveStatusApproved,
		DateStart: date(2026, 2, 2), DayPartStart: userdomain.DayPartAll,
		DateEnd: date(2026, 2, 2), DayPartEnd: userdomain.DayPartAll,
	}))

	res := f.svc.DeleteLeaveType(ctx, f.actor, holiday.ID.String())
	assert.Equal(t, domain.StateRejected, res.State)
	assert.Equal(t, []string{"Cannot remove leave type: type is in use", "Failed to remove Leave Type"}, res.Errors)

	still, err := f.companies.LeaveTypes().FindOne(ctx, &companydomain.LeaveType{ID: holiday.ID})
	require.NoError(t, err)
	require.NotNil(t, still)
	assert.Equal(t, "Holiday", still.Name)
}

func TestDeleteLeaveType(t *testing.T) {
	f := newFixture(t)
	_, sick := f.seedLeaveTypes(t)
	ctx := context.Background()

	res := f.svc.DeleteLeaveType(ctx, f.actor, "not-a-number")
	assert.Equal(t, []string{"Cannot remove leave_type: wrong parameters"}, res.Errors)

	res = f.svc.DeleteLeaveType(ctx, f.actor, "999")
	assert.Equal(t, []string{"Cannot remove leave type: wronge parameters", "Failed to remove Leave Type"}, res.Errors)

	res = f.svc.DeleteLeaveType(ctx, f.actor, sick.ID.String())
	assert.Equal(t, domain.StateSuccess, res.State)
	assert.Equal(t, []string{"Leave type was successfully removed"}, res.Messages)

	gone, err := f.companies.LeaveTypes().FindOne(ctx, &companydomain.LeaveType{ID: sick.ID})
	require.NoError(t, err)
	assert.Nil(t, gone)
}
