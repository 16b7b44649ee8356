package service

import (
	"context"

	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
	"github.com/smallbiznis/timeoff/pkg/usererror"
)

func (s *Service) UpdateIntegrationAPI(ctx context.Context, req domain.UpdateIntegrationAPIRequest) *domain.Result {
	const op = "update_integration_api"
	res := domain.NewResult(domain.PathIntegrationAPI)
	defer s.observe(ctx, op, res)

	enabled := validation.Bool(req.Enabled)

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, false)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, integrationFailure(err))
	}

	res.Enter(domain.StateMutate)
	before := company.IntegrationSnapshot()
	company.IntegrationAPIEnabled = enabled
	if req.RegenerateToken || company.IntegrationAPIToken == "" {
		company.IntegrationAPIToken = uuid.NewString()
	}

	res.Enter(domain.StatePersist)
	if err := s.companies.Companies().Save(ctx, company); err != nil {
		return s.rejectSystem(res, op, req.Actor, err, integrationFailure(err))
	}

	s.recordChanges(ctx, req.Actor, auditdomain.Subject{Type: auditdomain.EntityCompany, ID: company.ID}, before, company.IntegrationSnapshot())
	return res.Succeed("Settings were saved")
}

func integrationFailure(err error) string {
	reason := usererror.Message(err)
	if reason == "" {
		reason = "Please contact customer service"
	}
	return "Failed to save settings. " + reason
}
