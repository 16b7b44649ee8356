package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/pkg/db/option"
	"github.com/smallbiznis/timeoff/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	db           *gorm.DB
	companies    repository.Repository[domain.Company]
	bankHolidays repository.Repository[domain.BankHoliday]
	leaveTypes   repository.Repository[domain.LeaveType]
	schedules    repository.Repository[domain.Schedule]
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{
		db:           db,
		companies:    repository.ProvideStore[domain.Company](db),
		bankHolidays: repository.ProvideStore[domain.BankHoliday](db),
		leaveTypes:   repository.ProvideStore[domain.LeaveType](db),
		schedules:    repository.ProvideStore[domain.Schedule](db),
	}
}

func (r *repo) WithTrx(tx *gorm.DB) domain.Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repo) Companies() repository.Repository[domain.Company] { return r.companies }

func (r *repo) BankHolidays() repository.Repository[domain.BankHoliday] { return r.bankHolidays }

func (r *repo) LeaveTypes() repository.Repository[domain.LeaveType] { return r.leaveTypes }

func (r *repo) Schedules() repository.Repository[domain.Schedule] { return r.schedules }

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	if id == 0 {
		return nil, nil
	}
	return r.companies.FindOne(ctx, &domain.Company{ID: id})
}

func (r *repo) FindWithPolicy(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	if id == 0 {
		return nil, nil
	}
	return r.companies.FindOne(ctx, &domain.Company{ID: id},
		option.Preload("BankHolidays", func(db *gorm.DB) *gorm.DB {
			return db.Order("date asc").Order("id asc")
		}),
		option.Preload("LeaveTypes", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc").Order("id asc")
		}),
	)
}

func (r *repo) CompanySchedule(ctx context.Context, companyID snowflake.ID) (*domain.Schedule, error) {
	return r.schedules.FindOne(ctx, nil,
		option.Where("company_id = ? AND user_id IS NULL", companyID),
	)
}

func (r *repo) UserSchedule(ctx context.Context, userID snowflake.ID) (*domain.Schedule, error) {
	return r.schedules.FindOne(ctx, nil, option.Where("user_id = ?", userID))
}

func (r *repo) BankHolidaysBetween(ctx context.Context, companyID snowflake.ID, from, to time.Time) ([]*domain.BankHoliday, error) {
	return r.bankHolidays.Find(ctx, &domain.BankHoliday{CompanyID: companyID},
		option.Where("date >= ? AND date < ?", from, to.AddDate(0, 0, 1)),
		option.OrderBy("date asc"),
	)
}
