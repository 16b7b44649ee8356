package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
	"github.com/smallbiznis/timeoff/pkg/usererror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	msgLeaveTypesSaved       = "Changes to leave types were saved"
	msgLeaveTypesFailed      = "Failed to update leave types details, please contact customer service"
	msgLeaveTypeBadID        = "Cannot remove leave_type: wrong parameters"
	msgLeaveTypeBadParams    = "Cannot remove leave type: wronge parameters"
	msgLeaveTypeInUse        = "Cannot remove leave type: type is in use"
	msgLeaveTypeRemoveFailed = "Failed to remove Leave Type"
	msgLeaveTypeRemoved      = "Leave type was successfully removed"
	newLeaveTypeItem         = "New Leave Type"
)

type leaveTypeUpdate struct {
	leaveType *companydomain.LeaveType
	attrs     map[string]any
	before    map[string]any
	after     map[string]any
}

// leaveTypeAttrs validates one row. ok is false for rows without a name,
// which are left untouched.
func (s *Service) leaveTypeAttrs(row domain.LeaveTypeRow, item, key, firstRecord string, report *validation.Report) (attrs map[string]any, ok bool) {
	name := validation.Text(row.Name)
	if name == "" {
		return nil, false
	}

	color := validation.Text(row.Color)
	if color == "" {
		color = companydomain.DefaultColor
	}
	color = s.validator.Match(color, validation.TagLeaveTypeColor, "New color for "+item+" should be valid css class", report)

	limit := s.validator.NonNegative(row.Limit, decimal.Zero,
		"New limit for "+item+" should be a valide number",
		"New limit for "+item+" should be positive number or 0",
		report,
	)

	sortOrder := 0
	if first := validation.Text(firstRecord); first != "" && first == key {
		sortOrder = 1
	}

	return map[string]any{
		"name":          name,
		"color":         color,
		"use_allowance": validation.Bool(row.UseAllowance),
		"auto_approve":  validation.Bool(row.AutoApprove),
		"limit_days":    limit,
		"sort_order":    sortOrder,
	}, true
}

// UpdateLeaveTypes follows the same batch rule as bank holidays: updates are
// all-or-nothing, the new row only depends on its own fields.
func (s *Service) UpdateLeaveTypes(ctx context.Context, req domain.UpdateLeaveTypesRequest) *domain.Result {
	const op = "update_leave_types"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	report := &validation.Report{}

	var created *companydomain.LeaveType
	if req.New != nil {
		own := &validation.Report{}
		attrs, ok := s.leaveTypeAttrs(*req.New, newLeaveTypeItem, domain.NewRowKey, req.FirstRecord, own)
		switch {
		case !ok:
		case own.HasErrors():
			for _, msg := range own.Errors() {
				report.Add(msg)
			}
		default:
			created = &companydomain.LeaveType{ID: s.genID.Generate()}
			applyLeaveType(created, attrs)
		}
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, true)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, msgLeaveTypesFailed)
	}
	if created != nil {
		created.CompanyID = company.ID
	}

	res.Enter(domain.StateMutate)
	rows := make(map[string]domain.LeaveTypeRow, len(req.Rows))
	for _, row := range req.Rows {
		rows[row.ID.String()] = row
	}
	var updates []leaveTypeUpdate
	for i := range company.LeaveTypes {
		leaveType := &company.LeaveTypes[i]
		key := leaveType.ID.String()
		row, ok := rows[key]
		if !ok {
			continue
		}
		attrs, ok := s.leaveTypeAttrs(row, leaveType.Name, key, req.FirstRecord, report)
		if !ok {
			continue
		}
		after := *leaveType
		applyLeaveType(&after, attrs)
		updates = append(updates, leaveTypeUpdate{leaveType: leaveType, attrs: attrs, before: leaveType.Snapshot(), after: after.Snapshot()})
	}
	if report.HasErrors() {
		res.AddErrors(report.Errors())
		updates = nil
	}

	res.Enter(domain.StatePersist)
	var g errgroup.Group
	if created != nil {
		g.Go(func() error {
			return s.companies.LeaveTypes().Create(ctx, created)
		})
	}
	for _, update := range updates {
		g.Go(func() error {
			return s.companies.LeaveTypes().Update(ctx, update.leaveType, update.attrs)
		})
	}
	if err := g.Wait(); err != nil {
		return s.rejectSystem(res, op, req.Actor, err, msgLeaveTypesFailed)
	}

	if created != nil {
		s.recordChanges(ctx, req.Actor, auditdomain.Subject{Type: auditdomain.EntityLeaveType, ID: created.ID}, nil, created.Snapshot())
	}
	for _, update := range updates {
		s.recordChanges(ctx, req.Actor, auditdomain.Subject{Type: auditdomain.EntityLeaveType, ID: update.leaveType.ID}, update.before, update.after)
	}

	if res.HasErrors() {
		return res.Reject()
	}
	return res.Succeed(msgLeaveTypesSaved)
}

func applyLeaveType(lt *companydomain.LeaveType, attrs map[string]any) {
	lt.Name = attrs["name"].(string)
	lt.Color = attrs["color"].(string)
	lt.UseAllowance = attrs["use_allowance"].(bool)
	lt.AutoApprove = attrs["auto_approve"].(bool)
	lt.Limit = attrs["limit_days"].(decimal.Decimal)
	lt.SortOrder = attrs["sort_order"].(int)
}

// DeleteLeaveType removes a leave type that no leave refers to.
func (s *Service) DeleteLeaveType(ctx context.Context, actor domain.Actor, id string) *domain.Result {
	const op = "delete_leave_type"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	leaveTypeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || leaveTypeID <= 0 {
		s.log.Warn("non-int leave type id submitted",
			zap.String("user_id", actor.UserID.String()), zap.String("id", id))
		return res.Reject(msgLeaveTypeBadID)
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, actor, false)
	if err != nil {
		return s.rejectLoad(res, op, actor, err, msgLeaveTypeRemoveFailed)
	}

	res.Enter(domain.StatePersist)
	var removed *companydomain.LeaveType
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companies := s.companies.WithTrx(tx)
		leaveType, err := companies.LeaveTypes().FindOne(ctx, &companydomain.LeaveType{ID: leaveTypeID, CompanyID: company.ID})
		if err != nil {
			return err
		}
		if leaveType == nil {
			return usererror.Wrap(companydomain.ErrNotFound, msgLeaveTypeBadParams)
		}

		inUse, err := s.users.WithTrx(tx).CountLeavesByType(ctx, leaveType.ID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return usererror.Wrap(companydomain.ErrLeaveTypeInUse, msgLeaveTypeInUse)
		}

		removed = leaveType
		return companies.LeaveTypes().Delete(ctx, leaveType)
	})
	if err != nil {
		if usererror.Is(err) {
			res.AddError(usererror.Message(err))
		}
		return s.rejectSystem(res, op, actor, err, msgLeaveTypeRemoveFailed)
	}

	s.recordChanges(ctx, actor, auditdomain.Subject{Type: auditdomain.EntityLeaveType, ID: removed.ID}, removed.Snapshot(), map[string]any{"deleted": true})
	return res.Succeed(msgLeaveTypeRemoved)
}
