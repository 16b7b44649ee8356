package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	"github.com/smallbiznis/timeoff/internal/audit/masking"
	obscontext "github.com/smallbiznis/timeoff/internal/observability/context"
	"github.com/smallbiznis/timeoff/internal/observability/metrics"
	"github.com/smallbiznis/timeoff/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxConcurrentWrites = 5

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    auditdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) RecordChanges(ctx context.Context, actor auditdomain.Actor, subject auditdomain.Subject, before, after map[string]any) error {
	if subject.Type == "" || subject.ID == 0 {
		return auditdomain.ErrInvalidSubject
	}

	changes := auditdomain.Diff(before, after)
	if len(changes) == 0 {
		return nil
	}

	var byUserID *snowflake.ID
	if actor.UserID != 0 {
		id := actor.UserID
		byUserID = &id
	}

	metadata := datatypes.JSONMap{}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}
	if ip := obscontext.ClientIPFromContext(ctx); ip != "" {
		metadata["ip_address"] = ip
	}

	now := time.Now().UTC()
	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	for _, change := range changes {
		entry := &auditdomain.AuditRecord{
			ID:         s.genID.Generate(),
			CompanyID:  actor.CompanyID,
			ByUserID:   byUserID,
			EntityType: subject.Type,
			EntityID:   subject.ID,
			Attribute:  change.Attribute,
			OldValue:   masking.MaskAttribute(change.Attribute, change.OldValue),
			NewValue:   masking.MaskAttribute(change.Attribute, change.NewValue),
			Metadata:   metadata,
			CreatedAt:  now,
		}
		g.Go(func() error {
			return s.repo.Insert(ctx, s.db, entry)
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Warn("failed to write audit records",
			zap.String("entity_type", string(subject.Type)),
			zap.String("entity_id", subject.ID.String()),
			zap.Error(err),
		)
		return errors.Wrap(err, "record audit changes")
	}

	s.metrics.RecordAuditRecords(ctx, string(subject.Type), len(changes))
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditRequest) (auditdomain.ListAuditResponse, error) {
	if req.CompanyID == 0 {
		return auditdomain.ListAuditResponse{}, auditdomain.ErrInvalidCompany
	}

	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListAuditResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{
			ID:        id,
			CreatedAt: createdAt,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		CompanyID:  req.CompanyID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Attribute:  req.Attribute,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditResponse{}, err
	}

	hasMore := len(items) > pageSize
	if hasMore {
		items = items[:pageSize]
	}
	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	pageInfo.HasMore = hasMore
	if !hasMore {
		pageInfo.NextPageToken = ""
	}

	records := make([]auditdomain.AuditRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	return auditdomain.ListAuditResponse{PageInfo: *pageInfo, Records: records}, nil
}
