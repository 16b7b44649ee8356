package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	DefaultCountry    = "GB"
	DefaultDateFormat = "YYYY-MM-DD"
	DefaultTimezone   = "Europe/London"
	DefaultColor      = "leave_type_color_1"
)

// Company owns every policy record: bank holidays, leave types and schedules.
type Company struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Name             string          `gorm:"type:text;not null"`
	Country          string          `gorm:"type:text;not null"`
	DateFormat       string          `gorm:"column:date_format;type:text;not null"`
	Timezone         string          `gorm:"type:text;not null"`
	CarryOver        decimal.Decimal `gorm:"column:carry_over;type:numeric(10,2);not null"`
	ShareAllAbsences bool            `gorm:"column:share_all_absences;not null"`
	IsTeamViewHidden bool            `gorm:"column:is_team_view_hidden;not null"`

	IntegrationAPIEnabled bool   `gorm:"column:integration_api_enabled;not null"`
	IntegrationAPIToken   string `gorm:"column:integration_api_token;type:text"`

	LdapAuthEnabled bool                               `gorm:"column:ldap_auth_enabled;not null"`
	LdapAuthConfig  datatypes.JSONType[LdapAuthConfig] `gorm:"column:ldap_auth_config"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	BankHolidays []BankHoliday `gorm:"foreignKey:CompanyID"`
	LeaveTypes   []LeaveType   `gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string { return "companies" }

// LdapAuthConfig is stored as JSON on the company row.
type LdapAuthConfig struct {
	URL                   string `json:"url"`
	BindDN                string `json:"binddn"`
	BindCredentials       string `json:"bindcredentials"`
	SearchBase            string `json:"searchbase"`
	SearchFilter          string `json:"searchfilter"`
	AllowUnauthorizedCert bool   `json:"allow_unauthorized_cert"`
}

func (c *Company) LDAP() LdapAuthConfig {
	return c.LdapAuthConfig.Data()
}

func (c *Company) SetLDAP(cfg LdapAuthConfig) {
	c.LdapAuthConfig = datatypes.NewJSONType(cfg)
}

// Location falls back to UTC when the stored zone cannot be loaded.
func (c *Company) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// Today is the company's current calendar date, as a UTC midnight.
func (c *Company) Today(now time.Time) time.Time {
	local := now.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// MachineName is a filesystem safe rendition of the company name.
func (c *Company) MachineName() string {
	name := slug.Make(c.Name)
	if name == "" {
		return "company"
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (c *Company) ProfileSnapshot() map[string]any {
	return map[string]any{
		"name":                c.Name,
		"country":             c.Country,
		"date_format":         c.DateFormat,
		"timezone":            c.Timezone,
		"carry_over":          c.CarryOver,
		"share_all_absences":  c.ShareAllAbsences,
		"is_team_view_hidden": c.IsTeamViewHidden,
	}
}

func (c *Company) IntegrationSnapshot() map[string]any {
	return map[string]any{
		"integration_api_enabled": c.IntegrationAPIEnabled,
		"integration_api_token":   c.IntegrationAPIToken,
	}
}

func (c *Company) LDAPSnapshot() map[string]any {
	cfg := c.LDAP()
	return map[string]any{
		"ldap_auth_enabled":       c.LdapAuthEnabled,
		"url":                     cfg.URL,
		"binddn":                  cfg.BindDN,
		"bindcredentials":         cfg.BindCredentials,
		"searchbase":              cfg.SearchBase,
		"searchfilter":            cfg.SearchFilter,
		"allow_unauthorized_cert": cfg.AllowUnauthorizedCert,
	}
}

type BankHoliday struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	CompanyID snowflake.ID   `gorm:"column:company_id;not null;uniqueIndex:ux_bank_holiday_company_date"`
	Name      string         `gorm:"type:text;not null"`
	Date      datatypes.Date `gorm:"not null;uniqueIndex:ux_bank_holiday_company_date"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (BankHoliday) TableName() string { return "bank_holidays" }

// Day returns the holiday as a UTC midnight.
func (b *BankHoliday) Day() time.Time {
	t := time.Time(b.Date)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey is the ISO form used to compare holidays.
func (b *BankHoliday) DateKey() string {
	return b.Day().Format(ISODateLayout)
}

type LeaveType struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	CompanyID    snowflake.ID    `gorm:"column:company_id;not null;index"`
	Name         string          `gorm:"type:text;not null"`
	Color        string          `gorm:"type:text;not null"`
	UseAllowance bool            `gorm:"column:use_allowance;not null"`
	AutoApprove  bool            `gorm:"column:auto_approve;not null"`
	Limit        decimal.Decimal `gorm:"column:limit_days;type:numeric(10,2);not null"`
	SortOrder    int             `gorm:"column:sort_order;not null"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

func (LeaveType) TableName() string { return "leave_types" }

func (l *LeaveType) Snapshot() map[string]any {
	return map[string]any{
		"name":          l.Name,
		"color":         l.Color,
		"use_allowance": l.UseAllowance,
		"auto_approve":  l.AutoApprove,
		"limit":         l.Limit,
		"sort_order":    l.SortOrder,
	}
}

// Schedule marks working weekdays. Exactly one of CompanyID or UserID is set:
// a company-wide schedule or a user-specific override.
type Schedule struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	CompanyID *snowflake.ID `gorm:"column:company_id;index"`
	UserID    *snowflake.ID `gorm:"column:user_id;uniqueIndex"`

	Monday    bool `gorm:"not null"`
	Tuesday   bool `gorm:"not null"`
	Wednesday bool `gorm:"not null"`
	Thursday  bool `gorm:"not null"`
	Friday    bool `gorm:"not null"`
	Saturday  bool `gorm:"not null"`
	Sunday    bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Schedule) TableName() string { return "schedules" }

// Weekdays lists days in the order the settings form renders them.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func NewCompanySchedule(id, companyID snowflake.ID) *Schedule {
	s := &Schedule{ID: id, CompanyID: &companyID}
	s.applyDefault()
	return s
}

func NewUserSchedule(id, userID snowflake.ID) *Schedule {
	s := &Schedule{ID: id, UserID: &userID}
	s.applyDefault()
	return s
}

// DefaultSchedule is Monday to Friday, used when nothing is stored.
func DefaultSchedule() *Schedule {
	s := &Schedule{}
	s.applyDefault()
	return s
}

func (s *Schedule) applyDefault() {
	s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday = true, true, true, true, true
	s.Saturday, s.Sunday = false, false
}

func (s *Schedule) IsUserSpecific() bool {
	return s.UserID != nil
}

func (s *Schedule) Works(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}

func (s *Schedule) SetDay(day time.Weekday, working bool) {
	switch day {
	case time.Monday:
		s.Monday = working
	case time.Tuesday:
		s.Tuesday = working
	case time.Wednesday:
		s.Wednesday = working
	case time.Thursday:
		s.Thursday = working
	case time.Friday:
		s.Friday = working
	case time.Saturday:
		s.Saturday = working
	default:
		s.Sunday = working
	}
}

func (s *Schedule) Snapshot() map[string]any {
	out := make(map[string]any, len(Weekdays))
	for _, day := range Weekdays {
		out[strings.ToLower(day.String())] = s.Works(day)
	}
	return out
}
