package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/user/domain"
	"github.com/smallbiznis/timeoff/pkg/db/option"
	"github.com/smallbiznis/timeoff/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db          *gorm.DB
	users       repository.Repository[domain.User]
	feeds       repository.Repository[domain.UserFeed]
	leaves      repository.Repository[domain.Leave]
	adjustments repository.Repository[domain.AllowanceAdjustment]
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{
		db:          db,
		users:       repository.ProvideStore[domain.User](db),
		feeds:       repository.ProvideStore[domain.UserFeed](db),
		leaves:      repository.ProvideStore[domain.Leave](db),
		adjustments: repository.ProvideStore[domain.AllowanceAdjustment](db),
	}
}

func (r *repo) WithTrx(tx *gorm.DB) domain.Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repo) Users() repository.Repository[domain.User] { return r.users }

func (r *repo) Feeds() repository.Repository[domain.UserFeed] { return r.feeds }

func (r *repo) Leaves() repository.Repository[domain.Leave] { return r.leaves }

func (r *repo) Adjustments() repository.Repository[domain.AllowanceAdjustment] {
	return r.adjustments
}

func (r *repo) FindInCompany(ctx context.Context, companyID, userID snowflake.ID) (*domain.User, error) {
	if companyID == 0 || userID == 0 {
		return nil, nil
	}
	return r.users.FindOne(ctx, &domain.User{ID: userID, CompanyID: companyID})
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return r.users.FindOne(ctx, nil, option.Where("LOWER(email) = ?", email))
}

func (r *repo) ListByCompany(ctx context.Context, companyID snowflake.ID) ([]*domain.User, error) {
	return r.users.Find(ctx, &domain.User{CompanyID: companyID},
		option.OrderBy("lastname asc"),
		option.OrderBy("name asc"),
	)
}

func (r *repo) FindFeedByToken(ctx context.Context, token string) (*domain.UserFeed, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return r.feeds.FindOne(ctx, &domain.UserFeed{FeedToken: token}, option.Preload("User"))
}

func (r *repo) CountLeavesByType(ctx context.Context, leaveTypeID snowflake.ID) (int64, error) {
	return r.leaves.Count(ctx, &domain.Leave{LeaveTypeID: leaveTypeID})
}

func (r *repo) LeavesOverlapping(ctx context.Context, userIDs []snowflake.ID, from, to time.Time) ([]*domain.Leave, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.leaves.Find(ctx, nil,
		option.Where("user_id IN ?", userIDs),
		option.Where("date_start < ? AND date_end >= ?", to.AddDate(0, 0, 1), from),
		option.OrderBy("date_start asc"),
	)
}

func (r *repo) AdjustmentFor(ctx context.Context, userID snowflake.ID, year int) (*domain.AllowanceAdjustment, error) {
	return r.adjustments.FindOne(ctx, &domain.AllowanceAdjustment{UserID: userID, Year: year})
}

// UpsertCarriedOver sets the carried over allowance of (userID, year) and
// keeps any manual adjustment already stored on the row.
func (r *repo) UpsertCarriedOver(ctx context.Context, id, userID snowflake.ID, year int, carried decimal.Decimal) error {
	row := &domain.AllowanceAdjustment{
		ID:                   id,
		UserID:               userID,
		Year:                 year,
		Adjustment:           decimal.Zero,
		CarriedOverAllowance: carried,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"carried_over_allowance", "updated_at"}),
	}).Create(row).Error
}
