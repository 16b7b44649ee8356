package repository

import (
	"context"

	"github.com/smallbiznis/timeoff/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic persistence contract shared by every policy entity.
// FindOne returns (nil, nil) when nothing matches.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	Update(ctx context.Context, resource *T, attrs map[string]any) error
	Save(ctx context.Context, resource *T) error
	Delete(ctx context.Context, resource *T) error
}
