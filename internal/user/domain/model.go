package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"column:company_id;not null;index"`

	Email        string  `gorm:"type:text;not null;uniqueIndex"`
	Name         string  `gorm:"type:text;not null"`
	Lastname     string  `gorm:"type:text;not null"`
	PasswordHash *string `gorm:"column:password_hash;type:text"`
	IsAdmin      bool    `gorm:"column:is_admin;not null"`
	Activated    bool    `gorm:"not null"`

	StartDate       datatypes.Date  `gorm:"column:start_date;not null"`
	EndDate         *datatypes.Date `gorm:"column:end_date"`
	AnnualAllowance decimal.Decimal `gorm:"column:annual_allowance;type:numeric(10,2);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Lastname)
}

// IsActiveOn reports whether the user is employed and activated on day.
func (u *User) IsActiveOn(day time.Time) bool {
	if !u.Activated {
		return false
	}
	if u.EndDate == nil {
		return true
	}
	end := time.Time(*u.EndDate)
	return !day.After(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC))
}

func (u *User) Snapshot() map[string]any {
	return map[string]any{
		"name":             u.Name,
		"lastname":         u.Lastname,
		"email":            u.Email,
		"is_admin":         u.IsAdmin,
		"activated":        u.Activated,
		"annual_allowance": u.AnnualAllowance,
	}
}

type FeedType string

const (
	FeedTypeCalendar FeedType = "calendar"
	FeedTypeTeamView FeedType = "teamview"
)

// UserFeed is an opaque token granting read access to a user's calendar.
type UserFeed struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Name      string       `gorm:"type:text;not null"`
	FeedToken string       `gorm:"column:feed_token;type:text;not null;uniqueIndex"`
	Type      FeedType     `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`

	User *User `gorm:"foreignKey:UserID"`
}

func (UserFeed) TableName() string { return "user_feeds" }

func (f *UserFeed) IsCalendar() bool {
	return f.Type != FeedTypeTeamView
}

type LeaveStatus string

const (
	LeaveStatusNew          LeaveStatus = "new"
	LeaveStatusApproved     LeaveStatus = "approved"
	LeaveStatusRejected     LeaveStatus = "rejected"
	LeaveStatusCanceled     LeaveStatus = "canceled"
	LeaveStatusPendedRevoke LeaveStatus = "pended_revoke"
)

// IsApproved treats a leave awaiting revocation as still approved.
func (s LeaveStatus) IsApproved() bool {
	return s == LeaveStatusApproved || s == LeaveStatusPendedRevoke
}

// IsVisible reports whether the leave shows up on calendars.
func (s LeaveStatus) IsVisible() bool {
	return s == LeaveStatusNew || s.IsApproved()
}

type DayPart string

const (
	DayPartAll       DayPart = "all"
	DayPartMorning   DayPart = "morning"
	DayPartAfternoon DayPart = "afternoon"
)

type Leave struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	UserID       snowflake.ID   `gorm:"column:user_id;not null;index"`
	LeaveTypeID  snowflake.ID   `gorm:"column:leave_type_id;not null;index"`
	Status       LeaveStatus    `gorm:"type:text;not null"`
	DateStart    datatypes.Date `gorm:"column:date_start;not null"`
	DayPartStart DayPart        `gorm:"column:day_part_start;type:text;not null"`
	DateEnd      datatypes.Date `gorm:"column:date_end;not null"`
	DayPartEnd   DayPart        `gorm:"column:day_part_end;type:text;not null"`
	Comment      string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (Leave) TableName() string { return "leaves" }

func (l *Leave) Start() time.Time { return dateOnly(time.Time(l.DateStart)) }

func (l *Leave) End() time.Time { return dateOnly(time.Time(l.DateEnd)) }

// AllowanceAdjustment holds per-year manual adjustments and the allowance
// carried over from the previous year.
type AllowanceAdjustment struct {
	ID                   snowflake.ID    `gorm:"primaryKey"`
	UserID               snowflake.ID    `gorm:"column:user_id;not null;uniqueIndex:ux_adjustment_user_year"`
	Year                 int             `gorm:"not null;uniqueIndex:ux_adjustment_user_year"`
	Adjustment           decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CarriedOverAllowance decimal.Decimal `gorm:"column:carried_over_allowance;type:numeric(10,2);not null"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

func (AllowanceAdjustment) TableName() string { return "user_allowance_adjustments" }

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
