package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
)

func (s *Service) UpdateSchedule(ctx context.Context, req domain.UpdateScheduleRequest) *domain.Result {
	const op = "update_schedule"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	userSpecific := strings.TrimSpace(req.UserID) != ""
	failure := "Failed to save company schedule"
	if userSpecific {
		failure = "Failed to save user schedule"
		res.Redirect = domain.PathUsers
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, false)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, failure)
	}

	var (
		schedule *companydomain.Schedule
		stored   bool
	)
	if userSpecific {
		userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
		if err != nil {
			return s.rejectSystem(res, op, req.Actor, fmt.Errorf("invalid user id %q: %w", req.UserID, err), failure)
		}
		user, err := s.users.FindInCompany(ctx, company.ID, userID)
		if err != nil {
			return s.rejectSystem(res, op, req.Actor, err, failure)
		}
		if user == nil {
			return s.rejectSystem(res, op, req.Actor, fmt.Errorf("user %s not found in company %s", userID, company.ID), failure)
		}
		res.Redirect = fmt.Sprintf("/users/edit/%s/schedule/", user.ID)

		schedule, err = s.companies.UserSchedule(ctx, user.ID)
		if err != nil {
			return s.rejectSystem(res, op, req.Actor, err, failure)
		}
		stored = schedule != nil
		if !stored {
			schedule = companydomain.NewUserSchedule(s.genID.Generate(), user.ID)
		}
	} else {
		schedule, err = s.companies.CompanySchedule(ctx, company.ID)
		if err != nil {
			return s.rejectSystem(res, op, req.Actor, err, failure)
		}
		stored = schedule != nil
		if !stored {
			schedule = companydomain.NewCompanySchedule(s.genID.Generate(), company.ID)
		}
	}

	res.Enter(domain.StateMutate)
	before := map[string]any{}
	if stored {
		before = schedule.Snapshot()
	}
	for _, day := range companydomain.Weekdays {
		schedule.SetDay(day, validation.Bool(req.Days[strings.ToLower(day.String())]))
	}

	success := "Schedule for company was saved"
	if schedule.IsUserSpecific() {
		success = "Schedule for user was saved"
	}

	res.Enter(domain.StatePersist)
	subject := auditdomain.Subject{Type: auditdomain.EntitySchedule, ID: schedule.ID}
	if schedule.IsUserSpecific() && req.Revoke {
		if stored {
			if err := s.companies.Schedules().Delete(ctx, schedule); err != nil {
				return s.rejectSystem(res, op, req.Actor, err, failure)
			}
			s.recordChanges(ctx, req.Actor, subject, map[string]any{"revoked": false}, map[string]any{"revoked": true})
		}
		return res.Succeed(success)
	}

	persist := s.companies.Schedules().Create
	if stored {
		persist = s.companies.Schedules().Save
	}
	if err := persist(ctx, schedule); err != nil {
		return s.rejectSystem(res, op, req.Actor, err, failure)
	}
	s.recordChanges(ctx, req.Actor, subject, before, schedule.Snapshot())
	return res.Succeed(success)
}
