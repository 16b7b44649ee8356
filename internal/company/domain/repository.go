package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/pkg/repository"
	"gorm.io/gorm"
)

// Repository gives access to the company's policy records. The generic stores
// cover plain CRUD; the named queries carry the ordering the settings pages
// and the calendar depend on.
type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	Companies() repository.Repository[Company]
	BankHolidays() repository.Repository[BankHoliday]
	LeaveTypes() repository.Repository[LeaveType]
	Schedules() repository.Repository[Schedule]

	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	// FindWithPolicy preloads bank holidays by date and leave types by name.
	FindWithPolicy(ctx context.Context, id snowflake.ID) (*Company, error)
	CompanySchedule(ctx context.Context, companyID snowflake.ID) (*Schedule, error)
	UserSchedule(ctx context.Context, userID snowflake.ID) (*Schedule, error)
	BankHolidaysBetween(ctx context.Context, companyID snowflake.ID, from, to time.Time) ([]*BankHoliday, error)
}
