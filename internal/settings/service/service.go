package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	"github.com/smallbiznis/timeoff/internal/carryover"
	"github.com/smallbiznis/timeoff/internal/clock"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/ldapauth"
	"github.com/smallbiznis/timeoff/internal/observability/metrics"
	refdomain "github.com/smallbiznis/timeoff/internal/reference/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Clock     clock.Clock
	Companies companydomain.Repository
	Users     userdomain.Repository
	Audit     auditdomain.Service
	CarryOver *carryover.Calculator
	Holidays  *config.BankHolidayCatalog
	LDAP      ldapauth.Authenticator
	Reference refdomain.Repository
	Validator *validation.Validator
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	ldapTimeout time.Duration
	clock       clock.Clock
	companies   companydomain.Repository
	users       userdomain.Repository
	audit       auditdomain.Service
	carryOver   *carryover.Calculator
	holidays    *config.BankHolidayCatalog
	ldap        ldapauth.Authenticator
	reference   refdomain.Repository
	validator   *validation.Validator
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settings.service"),
		genID:       p.GenID,
		ldapTimeout: p.Cfg.LDAPCheckTimeout,
		clock:       clk,
		companies:   p.Companies,
		users:       p.Users,
		audit:       p.Audit,
		carryOver:   p.CarryOver,
		holidays:    p.Holidays,
		ldap:        p.LDAP,
		reference:   p.Reference,
		validator:   p.Validator,
		metrics:     p.Metrics,
	}
}

func (s *Service) Company(ctx context.Context, actor domain.Actor) (*companydomain.Company, error) {
	return s.loadCompany(ctx, actor, false)
}

func (s *Service) loadCompany(ctx context.Context, actor domain.Actor, withPolicy bool) (*companydomain.Company, error) {
	if actor.CompanyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	var (
		company *companydomain.Company
		err     error
	)
	if withPolicy {
		company, err = s.companies.FindWithPolicy(ctx, actor.CompanyID)
	} else {
		company, err = s.companies.FindByID(ctx, actor.CompanyID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load company")
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

// rejectLoad ends res after a failed LOAD step.
func (s *Service) rejectLoad(res *domain.Result, op string, actor domain.Actor, err error, msg string) *domain.Result {
	if errors.Is(err, companydomain.ErrNotFound) || errors.Is(err, domain.ErrInvalidCompany) {
		s.log.Warn("company not found", zap.String("operation", op), zap.String("company_id", actor.CompanyID.String()))
		return res.Reject("Company was not found")
	}
	return s.rejectSystem(res, op, actor, err, msg)
}

// rejectSystem logs the underlying cause and ends res with a generic message.
func (s *Service) rejectSystem(res *domain.Result, op string, actor domain.Actor, err error, msg string) *domain.Result {
	s.log.Error("settings update failed",
		zap.String("operation", op),
		zap.String("state", string(res.State)),
		zap.String("company_id", actor.CompanyID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Error(err),
	)
	return res.Reject(msg)
}

// rejectIncident is rejectSystem with a marker the user can quote to support.
func (s *Service) rejectIncident(res *domain.Result, op string, actor domain.Actor, err error, format string) *domain.Result {
	marker := uuid.NewString()
	res.IncidentID = marker
	s.log.Error("settings update failed",
		zap.String("incident_id", marker),
		zap.String("operation", op),
		zap.String("company_id", actor.CompanyID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Error(err),
	)
	return res.Reject(fmt.Sprintf(format, marker))
}

// recordChanges writes the audit trail of a persisted change. The change is
// already committed, so a failure here is logged and does not reject.
func (s *Service) recordChanges(ctx context.Context, actor domain.Actor, subject auditdomain.Subject, before, after map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChanges(ctx, actor.Audit(), subject, before, after); err != nil {
		s.log.Error("failed to record audit trail",
			zap.String("entity_type", string(subject.Type)),
			zap.String("entity_id", subject.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) observe(ctx context.Context, op string, res *domain.Result) {
	s.metrics.RecordSettingsUpdate(ctx, op, string(res.State))
	if res.Rejected() {
		s.log.Debug("settings update rejected", zap.String("operation", op), zap.Strings("errors", res.Errors))
	}
}
