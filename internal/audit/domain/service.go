package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/pkg/db/pagination"
)

type ListAuditRequest struct {
	pagination.Pagination
	CompanyID  snowflake.ID
	EntityType string
	EntityID   string
	Attribute  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditResponse struct {
	pagination.PageInfo
	Records []AuditRecord `json:"records"`
}

type Service interface {
	// RecordChanges writes one record per attribute whose text differs
	// between before and after. It returns once every write has settled and
	// fails if any of them failed.
	RecordChanges(ctx context.Context, actor Actor, subject Subject, before, after map[string]any) error
	List(ctx context.Context, req ListAuditRequest) (ListAuditResponse, error)
}

var (
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidSubject   = errors.New("invalid_subject")
)
