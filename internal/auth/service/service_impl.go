package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/auth/password"
	"github.com/smallbiznis/timeoff/internal/clock"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/ldapauth"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Clock     clock.Clock
	GenID     *snowflake.Node
	Sessions  domain.SessionRepository
	Users     userdomain.Repository
	Companies companydomain.Repository
	LDAP      ldapauth.Authenticator
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	sessions    domain.SessionRepository
	users       userdomain.Repository
	companies   companydomain.Repository
	ldap        ldapauth.Authenticator
	sessionTTL  time.Duration
	ldapTimeout time.Duration
}

func New(p Params) domain.Service {
	ttl := p.Cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		log:         p.Log.Named("auth.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		sessions:    p.Sessions,
		users:       p.Users,
		companies:   p.Companies,
		ldap:        p.LDAP,
		sessionTTL:  ttl,
		ldapTimeout: p.Cfg.LDAPCheckTimeout,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	if !user.IsActiveOn(now) {
		return nil, domain.ErrUserInactive
	}

	company, err := s.companies.FindByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.checkCredentials(ctx, company, user, req.Password); err != nil {
		return nil, err
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		CompanyID:        user.CompanyID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID.String()),
		zap.Bool("ldap", company.LdapAuthEnabled),
	)
	return &domain.LoginResult{User: user, RawToken: rawToken, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) checkCredentials(ctx context.Context, company *companydomain.Company, user *userdomain.User, secret string) error {
	if company.LdapAuthEnabled {
		_, err := s.ldap.Authenticate(ctx, company.LDAP(), user.Email, secret, s.ldapTimeout)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ldapauth.ErrInvalidCredentials), errors.Is(err, ldapauth.ErrUserNotFound), errors.Is(err, ldapauth.ErrAmbiguousUser):
			return domain.ErrInvalidCredentials
		default:
			return err
		}
	}

	if user.PasswordHash == nil || !password.Verify(secret, *user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.lookup(ctx, rawToken)
	if err != nil {
		return err
	}
	return s.sessions.RevokeSession(ctx, session.ID, s.clock.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	session, err := s.lookup(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.users.FindInCompany(ctx, session.CompanyID, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActiveOn(now) {
		return nil, domain.ErrInvalidSession
	}

	if err := s.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}
	return &domain.Principal{Session: session, User: user}, nil
}

func (s *Service) lookup(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}
	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	return session, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
