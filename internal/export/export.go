// Package export produces the company backup and removes a company with all
// of its data.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/calendar"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"github.com/smallbiznis/timeoff/pkg/db/option"
	"github.com/smallbiznis/timeoff/pkg/usererror"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrConfirmationMismatch = errors.New("confirmation_mismatch")

var summaryHeader = []string{
	"Lastname", "Name", "Email address", "Type of absence", "Status",
	"Started on", "Ending on", "Total deducted", "Employee comment",
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Companies companydomain.Repository
	Users     userdomain.Repository
	Resolver  *calendar.Resolver
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	companies companydomain.Repository
	users     userdomain.Repository
	resolver  *calendar.Resolver
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("export.service"),
		companies: p.Companies,
		users:     p.Users,
		resolver:  p.Resolver,
	}
}

// Backup is a rendered company summary.
type Backup struct {
	Filename string
	Content  []byte
}

// CompanySummary lists every leave of every employee as CSV, one row per
// leave, with dates in the company format.
func (s *Service) CompanySummary(ctx context.Context, companyID snowflake.ID) (*Backup, error) {
	company, err := s.companies.FindWithPolicy(ctx, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "load company")
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}

	users, err := s.users.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	ids := make([]snowflake.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	leaves, err := s.users.Leaves().Find(ctx, nil,
		option.Where("user_id IN ?", ids),
		option.OrderBy("date_start asc"),
		option.OrderBy("id asc"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list leaves")
	}
	byUser := make(map[snowflake.ID][]*userdomain.Leave, len(users))
	for _, leave := range leaves {
		byUser[leave.UserID] = append(byUser[leave.UserID], leave)
	}

	leaveTypes := make(map[snowflake.ID]companydomain.LeaveType, len(company.LeaveTypes))
	for _, lt := range company.LeaveTypes {
		leaveTypes[lt.ID] = lt
	}
	holidays := make([]*companydomain.BankHoliday, 0, len(company.BankHolidays))
	for i := range company.BankHolidays {
		holidays = append(holidays, &company.BankHolidays[i])
	}
	holidaySet := calendar.HolidaySet(holidays)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(summaryHeader); err != nil {
		return nil, err
	}

	for _, user := range users {
		schedule, err := s.resolver.ScheduleFor(ctx, company, user)
		if err != nil {
			return nil, err
		}
		for _, leave := range byUser[user.ID] {
			leaveType := leaveTypes[leave.LeaveTypeID]
			deducted := decimal.Zero
			if leaveType.UseAllowance {
				for _, day := range calendar.Resolve(schedule, holidaySet, []*userdomain.Leave{leave}, leave.Start(), leave.End()) {
					deducted = deducted.Add(day.Deduction())
				}
			}
			if err := w.Write([]string{
				user.Lastname,
				user.Name,
				user.Email,
				leaveType.Name,
				string(leave.Status),
				company.FormatDate(leave.Start()),
				company.FormatDate(leave.End()),
				deducted.String(),
				leave.Comment,
			}); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &Backup{Filename: company.MachineName() + "_backup.csv", Content: buf.Bytes()}, nil
}

// RemoveCompany deletes the company of byUser and everything that belongs to
// it. confirmName must repeat the company name.
func (s *Service) RemoveCompany(ctx context.Context, byUser *userdomain.User, confirmName string) (*companydomain.Company, error) {
	if byUser == nil || !byUser.IsAdmin {
		return nil, usererror.New("Only administrators can remove a company")
	}

	company, err := s.companies.FindByID(ctx, byUser.CompanyID)
	if err != nil {
		return nil, errors.Wrap(err, "load company")
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	if strings.TrimSpace(confirmName) != company.Name {
		return nil, usererror.Wrap(ErrConfirmationMismatch, "Provided name confirmation does not match company one")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userIDs := tx.Model(&userdomain.User{}).Select("id").Where("company_id = ?", company.ID)

		steps := []struct {
			name  string
			model any
			where string
			arg   any
		}{
			{"sessions", &authdomain.Session{}, "company_id = ?", company.ID},
			{"feeds", &userdomain.UserFeed{}, "user_id IN (?)", userIDs},
			{"leaves", &userdomain.Leave{}, "user_id IN (?)", userIDs},
			{"adjustments", &userdomain.AllowanceAdjustment{}, "user_id IN (?)", userIDs},
			{"user schedules", &companydomain.Schedule{}, "user_id IN (?)", userIDs},
			{"company schedule", &companydomain.Schedule{}, "company_id = ?", company.ID},
			{"audit", &auditdomain.AuditRecord{}, "company_id = ?", company.ID},
			{"bank holidays", &companydomain.BankHoliday{}, "company_id = ?", company.ID},
			{"leave types", &companydomain.LeaveType{}, "company_id = ?", company.ID},
			{"users", &userdomain.User{}, "company_id = ?", company.ID},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
				return errors.Wrapf(err, "remove %s", step.name)
			}
		}
		return tx.Delete(&companydomain.Company{}, company.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("company removed",
		zap.String("company_id", company.ID.String()),
		zap.String("by_user_id", byUser.ID.String()),
	)
	return company, nil
}
