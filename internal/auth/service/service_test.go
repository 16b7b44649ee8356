package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/auth/password"
	"github.com/smallbiznis/timeoff/internal/auth/repository"
	"github.com/smallbiznis/timeoff/internal/clock"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	companyrepo "github.com/smallbiznis/timeoff/internal/company/repository"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/ldapauth"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	userrepo "github.com/smallbiznis/timeoff/internal/user/repository"
	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakeLDAP struct {
	err   error
	calls int
}

func (f *fakeLDAP) Authenticate(_ context.Context, _ companydomain.LdapAuthConfig, identity, _ string, _ time.Duration) (ldapauth.Identity, error) {
	f.calls++
	if f.err != nil {
		return ldapauth.Identity{}, f.err
	}
	return ldapauth.Identity{Email: identity}, nil
}

type fixture struct {
	svc       domain.Service
	clock     *clock.FakeClock
	ldap      *fakeLDAP
	companies companydomain.Repository
	users     userdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&companydomain.Company{}, &userdomain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	companies := companyrepo.NewRepository(conn)
	users := userrepo.NewRepository(conn)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ldap := &fakeLDAP{}

	ctx := context.Background()
	require.NoError(t, companies.Companies().Create(ctx, &companydomain.Company{
		ID: 1, Name: "Acme", Country: "GB", DateFormat: "YYYY-MM-DD", Timezone: "Europe/London", CarryOver: decimal.Zero,
	}))
	hash, err := password.Hash("correct-password")
	require.NoError(t, err)
	end := datatypes.Date(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	for _, u := range []*userdomain.User{
		{ID: 10, CompanyID: 1, Email: "alice@example.com", Name: "Alice", PasswordHash: &hash, Activated: true},
		{ID: 11, CompanyID: 1, Email: "bob@example.com", Name: "Bob", PasswordHash: &hash, Activated: true, EndDate: &end},
	} {
		require.NoError(t, users.Users().Create(ctx, u))
	}

	svc := New(Params{
		Log:       zap.NewNop(),
		Cfg:       config.Config{SessionTTL: time.Hour, LDAPCheckTimeout: time.Second},
		Clock:     clk,
		GenID:     node,
		Sessions:  repository.New(conn),
		Users:     users,
		Companies: companies,
		LDAP:      ldap,
	})
	return &fixture{svc: svc, clock: clk, ldap: ldap, companies: companies, users: users}
}

func TestLoginWithPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{Email: " Alice@Example.com ", Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, f.clock.Now().Add(time.Hour), result.ExpiresAt)
	assert.Equal(t, snowflake.ID(10), result.User.ID)
	assert.Zero(t, f.ldap.calls)

	principal, err := f.svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.User.Email)
	assert.NotEqual(t, result.RawToken, principal.Session.SessionTokenHash)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), domain.LoginRequest{Email: "nobody@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginRejectsLeavers(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "bob@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestLoginUsesLDAPWhenEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	company, err := f.companies.FindByID(ctx, 1)
	require.NoError(t, err)
	company.LdapAuthEnabled = true
	company.SetLDAP(companydomain.LdapAuthConfig{URL: "ldap://ldap.example.com:389", SearchFilter: "(mail={{username}})"})
	require.NoError(t, f.companies.Companies().Save(ctx, company))

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "directory-password"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ldap.calls)

	f.ldap.err = ldapauth.ErrInvalidCredentials
	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	f.ldap.err = ldapauth.ErrTimeout
	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, ldapauth.ErrTimeout)
}

func TestSessionExpiryAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "correct-password"})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	f.clock.Advance(-2 * time.Hour)
	require.NoError(t, f.svc.Logout(ctx, result.RawToken))
	_, err = f.svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	_, err = f.svc.Authenticate(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
	assert.ErrorIs(t, f.svc.Logout(ctx, ""), domain.ErrInvalidSession)
}
