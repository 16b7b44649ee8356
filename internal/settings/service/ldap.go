package service

import (
	"context"

	"github.com/cockroachdb/errors"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/ldapauth"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
	"go.uber.org/zap"
)

const (
	msgLDAPUpdated   = "LDAP configuration was updated"
	msgLDAPFailed    = "Failed to update LDAP configuration. "
	msgLDAPBadURL    = "URL to LDAP server must be of following format: 'ldap://HOSTNAME:PORT'"
	msgLDAPBadFilter = "LDAP filter must contain the {{username}} placeholder. Use '(mail={{username}})' to match mail as the username."
)

// UpdateLDAPAuth only saves the new directory settings after the acting user
// managed to sign in with them, so an administrator cannot lock themselves out.
func (s *Service) UpdateLDAPAuth(ctx context.Context, req domain.UpdateLDAPAuthRequest) *domain.Result {
	const op = "update_ldap_auth"
	res := domain.NewResult(domain.PathAuthentication)
	defer s.observe(ctx, op, res)

	report := &validation.Report{}
	cfg := companydomain.LdapAuthConfig{
		URL:                   s.validator.Match(req.URL, validation.TagLDAPURL, msgLDAPBadURL, report),
		BindDN:                validation.Text(req.BindDN),
		BindCredentials:       validation.Text(req.BindCredentials),
		SearchBase:            validation.Text(req.SearchBase),
		SearchFilter:          s.validator.Match(req.SearchFilter, validation.TagUsernamePlaceholder, msgLDAPBadFilter, report),
		AllowUnauthorizedCert: validation.Bool(req.AllowUnauthorizedCert),
	}
	enabled := validation.Bool(req.Enabled)
	password := validation.Text(req.PasswordToCheck)
	if report.HasErrors() {
		return res.Reject(append(report.Errors(), msgLDAPFailed+"Validation failed")...)
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, false)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, msgLDAPFailed+"Please contact customer service")
	}

	res.Enter(domain.StateMutate)
	before := company.LDAPSnapshot()
	staged := *company
	staged.SetLDAP(cfg)
	staged.LdapAuthEnabled = enabled

	if _, err := s.ldap.Authenticate(ctx, cfg, req.Actor.Email, password, s.ldapTimeout); err != nil {
		s.log.Warn("new ldap settings rejected",
			zap.String("company_id", company.ID.String()),
			zap.String("url", cfg.URL),
			zap.Error(err),
		)
		return res.Reject(msgLDAPFailed + "Failed to validate new LDAP settings with provided current user password. " + ldapFailureReason(err))
	}

	res.Enter(domain.StatePersist)
	if err := s.companies.Companies().Save(ctx, &staged); err != nil {
		return s.rejectSystem(res, op, req.Actor, err, msgLDAPFailed+"Please contact customer service")
	}

	s.recordChanges(ctx, req.Actor, auditdomain.Subject{Type: auditdomain.EntityCompany, ID: staged.ID}, before, staged.LDAPSnapshot())
	return res.Succeed(msgLDAPUpdated)
}

func ldapFailureReason(err error) string {
	switch {
	case errors.Is(err, ldapauth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ldapauth.ErrUserNotFound):
		return "User was not found in the directory"
	case errors.Is(err, ldapauth.ErrAmbiguousUser):
		return "More than one directory entry matches the user"
	case errors.Is(err, ldapauth.ErrTimeout):
		return "LDAP server did not respond in time"
	default:
		return "Could not connect to LDAP server"
	}
}
