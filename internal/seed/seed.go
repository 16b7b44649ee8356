package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/auth/password"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/config"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultCompanyName = "My Company"
	defaultAdminName   = "Admin"
	defaultAdminLast   = "User"
	defaultAllowance   = 20
)

type Options struct {
	AdminEmail    string
	AdminPassword string
	Now           time.Time
}

// EnsureDefaultCompany creates a working company with an admin account when
// the database holds no company yet. Existing data is never touched.
func EnsureDefaultCompany(ctx context.Context, db *gorm.DB, node *snowflake.Node, catalog *config.BankHolidayCatalog, opts Options, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}
	log = log.Named("seed")

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		return errors.New("bootstrap admin email is required")
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var created bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&companydomain.Company{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		company, err := ensureCompanyTx(tx, node)
		if err != nil {
			return err
		}
		if err := tx.Create(companydomain.NewCompanySchedule(node.Generate(), company.ID)).Error; err != nil {
			return err
		}
		if err := ensureLeaveTypesTx(tx, node, company.ID); err != nil {
			return err
		}
		if err := ensureBankHolidaysTx(tx, node, catalog, company); err != nil {
			return err
		}
		if err := ensureAdminTx(tx, node, company.ID, email, opts.AdminPassword, now, log); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return err
	}
	if created {
		log.Info("default company created", zap.String("admin_email", email))
	}
	return nil
}

func ensureCompanyTx(tx *gorm.DB, node *snowflake.Node) (*companydomain.Company, error) {
	company := &companydomain.Company{
		ID:         node.Generate(),
		Name:       defaultCompanyName,
		Country:    companydomain.DefaultCountry,
		DateFormat: companydomain.DefaultDateFormat,
		Timezone:   companydomain.DefaultTimezone,
		CarryOver:  decimal.Zero,
	}
	if err := tx.Create(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func ensureLeaveTypesTx(tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	leaveTypes := []*companydomain.LeaveType{
		{ID: node.Generate(), CompanyID: companyID, Name: "Holiday", Color: companydomain.DefaultColor, UseAllowance: true, Limit: decimal.Zero, SortOrder: 1},
		{ID: node.Generate(), CompanyID: companyID, Name: "Sick Leave", Color: "leave_type_color_3", Limit: decimal.NewFromInt(10)},
	}
	return tx.Create(&leaveTypes).Error
}

func ensureBankHolidaysTx(tx *gorm.DB, node *snowflake.Node, catalog *config.BankHolidayCatalog, company *companydomain.Company) error {
	if catalog == nil {
		return nil
	}
	templates, ok := catalog.ForCountry(company.Country)
	if !ok || len(templates) == 0 {
		return nil
	}

	holidays := make([]*companydomain.BankHoliday, 0, len(templates))
	seen := make(map[string]struct{}, len(templates))
	for _, tpl := range templates {
		day, err := time.Parse(companydomain.ISODateLayout, tpl.Date)
		if err != nil {
			return err
		}
		if _, dup := seen[tpl.Date]; dup {
			continue
		}
		seen[tpl.Date] = struct{}{}
		holidays = append(holidays, &companydomain.BankHoliday{
			ID:        node.Generate(),
			CompanyID: company.ID,
			Name:      tpl.Name,
			Date:      datatypes.Date(day),
		})
	}
	return tx.Create(&holidays).Error
}

func ensureAdminTx(tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID, email, secret string, now time.Time, log *zap.Logger) error {
	admin := &userdomain.User{
		ID:              node.Generate(),
		CompanyID:       companyID,
		Email:           email,
		Name:            defaultAdminName,
		Lastname:        defaultAdminLast,
		IsAdmin:         true,
		Activated:       true,
		StartDate:       datatypes.Date(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)),
		AnnualAllowance: decimal.NewFromInt(defaultAllowance),
	}
	if secret == "" {
		log.Warn("bootstrap admin created without password", zap.String("email", email))
	} else {
		hashed, err := password.Hash(secret)
		if err != nil {
			return err
		}
		admin.PasswordHash = &hashed
	}
	return tx.Create(admin).Error
}
