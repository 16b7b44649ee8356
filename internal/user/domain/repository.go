package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/pkg/repository"
	"gorm.io/gorm"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	Users() repository.Repository[User]
	Feeds() repository.Repository[UserFeed]
	Leaves() repository.Repository[Leave]
	Adjustments() repository.Repository[AllowanceAdjustment]

	FindInCompany(ctx context.Context, companyID, userID snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByCompany(ctx context.Context, companyID snowflake.ID) ([]*User, error)
	// FindFeedByToken returns the feed with its owner, or (nil, nil).
	FindFeedByToken(ctx context.Context, token string) (*UserFeed, error)
	CountLeavesByType(ctx context.Context, leaveTypeID snowflake.ID) (int64, error)
	LeavesOverlapping(ctx context.Context, userIDs []snowflake.ID, from, to time.Time) ([]*Leave, error)
	AdjustmentFor(ctx context.Context, userID snowflake.ID, year int) (*AllowanceAdjustment, error)
	UpsertCarriedOver(ctx context.Context, id, userID snowflake.ID, year int, carried decimal.Decimal) error
}
