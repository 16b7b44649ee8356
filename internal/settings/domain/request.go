package domain

import (
	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
)

// Actor is the authenticated administrator running a settings request.
type Actor struct {
	CompanyID snowflake.ID
	UserID    snowflake.ID
	Email     string
}

func (a Actor) Audit() auditdomain.Actor {
	return auditdomain.Actor{CompanyID: a.CompanyID, UserID: a.UserID}
}

// UpdateCompanyRequest carries the raw company profile form.
type UpdateCompanyRequest struct {
	Actor            Actor
	Name             string
	Country          string
	DateFormat       string
	Timezone         string
	CarryOver        string
	ShareAllAbsences string
	IsTeamViewHidden string
}

// UpdateScheduleRequest updates the company schedule, or the schedule of
// UserID when it is set. Days holds the raw value submitted per weekday,
// keyed by lower case day name.
type UpdateScheduleRequest struct {
	Actor  Actor
	UserID string
	Days   map[string]string
	Revoke bool
}

// BankHolidayRow is one edited bank holiday, keyed by its id.
type BankHolidayRow struct {
	ID   snowflake.ID
	Name string
	Date string
}

type UpdateBankHolidaysRequest struct {
	Actor Actor
	Rows  []BankHolidayRow
	// New is created when its name is not blank.
	New *BankHolidayRow
}

// LeaveTypeRow is one edited leave type. Rows with a blank name are skipped.
type LeaveTypeRow struct {
	ID           snowflake.ID
	Name         string
	Color        string
	Limit        string
	UseAllowance string
	AutoApprove  string
}

type UpdateLeaveTypesRequest struct {
	Actor Actor
	Rows  []LeaveTypeRow
	New   *LeaveTypeRow
	// FirstRecord names the row shown first: a leave type id or "new".
	FirstRecord string
}

type UpdateIntegrationAPIRequest struct {
	Actor           Actor
	Enabled         string
	RegenerateToken bool
}

type UpdateLDAPAuthRequest struct {
	Actor                 Actor
	URL                   string
	BindDN                string
	BindCredentials       string
	SearchBase            string
	SearchFilter          string
	Enabled               string
	AllowUnauthorizedCert string
	// PasswordToCheck is the acting user's directory password, used to prove
	// the new settings still let them in.
	PasswordToCheck string
}
