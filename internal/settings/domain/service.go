package domain

import (
	"context"
	"errors"

	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
)

const (
	PathGeneral        = "/settings/general/"
	PathIntegrationAPI = "/settings/company/integration-api/"
	PathAuthentication = "/settings/company/authentication/"
	PathUsers          = "/users/"
	NewRowKey          = "new"
)

// CarryOverOption is one choice of the carry-over select.
type CarryOverOption struct {
	Days  int
	Label string
}

// GeneralView is everything the general settings page renders.
type GeneralView struct {
	Company          *companydomain.Company
	Schedule         *companydomain.Schedule
	Countries        []Country
	Timezones        []string
	DateFormats      []string
	CarryOverOptions []CarryOverOption
	YearCurrent      int
	YearPrev         int
}

type Country struct {
	Code string
	Name string
}

type Service interface {
	GeneralSettings(ctx context.Context, actor Actor) (GeneralView, error)
	Company(ctx context.Context, actor Actor) (*companydomain.Company, error)

	UpdateCompany(ctx context.Context, req UpdateCompanyRequest) *Result
	CarryOverUnusedAllowance(ctx context.Context, actor Actor) *Result
	UpdateSchedule(ctx context.Context, req UpdateScheduleRequest) *Result
	UpdateBankHolidays(ctx context.Context, req UpdateBankHolidaysRequest) *Result
	ImportBankHolidays(ctx context.Context, actor Actor) *Result
	DeleteBankHoliday(ctx context.Context, actor Actor, number string) *Result
	UpdateLeaveTypes(ctx context.Context, req UpdateLeaveTypesRequest) *Result
	DeleteLeaveType(ctx context.Context, actor Actor, id string) *Result
	UpdateIntegrationAPI(ctx context.Context, req UpdateIntegrationAPIRequest) *Result
	UpdateLDAPAuth(ctx context.Context, req UpdateLDAPAuthRequest) *Result
}

var (
	ErrInvalidCompany = errors.New("invalid_company")
)
