package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityUser      EntityType = "USER"
	EntityCompany   EntityType = "COMPANY"
	EntitySchedule  EntityType = "SCHEDULE"
	EntityLeaveType EntityType = "LEAVE_TYPE"
)

// AuditRecord is one changed attribute of one entity. Values are stored as
// text exactly as Stringify renders them.
type AuditRecord struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID  snowflake.ID      `gorm:"column:company_id;not null;index" json:"company_id"`
	ByUserID   *snowflake.ID     `gorm:"column:by_user_id" json:"by_user_id,omitempty"`
	EntityType EntityType        `gorm:"column:entity_type;type:text;not null" json:"entity_type"`
	EntityID   snowflake.ID      `gorm:"column:entity_id;not null" json:"entity_id"`
	Attribute  string            `gorm:"type:text;not null" json:"attribute"`
	OldValue   string            `gorm:"column:old_value;type:text" json:"old_value"`
	NewValue   string            `gorm:"column:new_value;type:text" json:"new_value"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditRecord) TableName() string { return "audit" }

// Actor is whoever made the change.
type Actor struct {
	CompanyID snowflake.ID
	UserID    snowflake.ID
}

// Subject is the entity that changed.
type Subject struct {
	Type EntityType
	ID   snowflake.ID
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	CompanyID  snowflake.ID
	EntityType string
	EntityID   string
	Attribute  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditRecord) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditRecord, error)
}
