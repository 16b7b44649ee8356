// Package ldapauth checks a user's credentials against a company LDAP server.
package ldapauth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-ldap/ldap/v3"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"go.uber.org/zap"
)

const usernamePlaceholder = "{{username}}"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrAmbiguousUser      = errors.New("ambiguous_user")
	ErrTimeout            = errors.New("ldap_timeout")
	ErrConnection         = errors.New("ldap_connection_failed")
)

// Identity is the directory entry that accepted the credentials.
type Identity struct {
	DN    string
	Email string
}

// Authenticator verifies identity/secret pairs against an LDAP configuration.
type Authenticator interface {
	Authenticate(ctx context.Context, cfg companydomain.LdapAuthConfig, identity, secret string, timeout time.Duration) (Identity, error)
}

// Conn is the subset of *ldap.Conn used here.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a directory connection.
type Dialer func(ctx context.Context, cfg companydomain.LdapAuthConfig, timeout time.Duration) (Conn, error)

type Client struct {
	log  *zap.Logger
	dial Dialer
}

func New(log *zap.Logger) *Client {
	return &Client{log: log.Named("ldapauth"), dial: DialLDAP}
}

// NewWithDialer swaps the transport, mostly for tests.
func NewWithDialer(log *zap.Logger, dial Dialer) *Client {
	return &Client{log: log.Named("ldapauth"), dial: dial}
}

// Authenticate binds with the service account, finds exactly one entry for
// identity and binds as that entry with secret. The whole exchange is bounded
// by timeout.
func (c *Client) Authenticate(ctx context.Context, cfg companydomain.LdapAuthConfig, identity, secret string, timeout time.Duration) (Identity, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || secret == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		identity Identity
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		id, err := c.authenticate(ctx, cfg, identity, secret, timeout)
		done <- outcome{identity: id, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			c.log.Debug("ldap authentication failed", zap.String("url", cfg.URL), zap.Error(res.err))
		}
		return res.identity, res.err
	case <-ctx.Done():
		c.log.Warn("ldap authentication timed out", zap.String("url", cfg.URL), zap.Duration("timeout", timeout))
		return Identity{}, ErrTimeout
	}
}

func (c *Client) authenticate(ctx context.Context, cfg companydomain.LdapAuthConfig, identity, secret string, timeout time.Duration) (Identity, error) {
	conn, err := c.dial(ctx, cfg, timeout)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer conn.Close()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindCredentials); err != nil {
			return Identity{}, fmt.Errorf("%w: service bind: %v", ErrConnection, err)
		}
	}

	filter := strings.ReplaceAll(cfg.SearchFilter, usernamePlaceholder, ldap.EscapeFilter(identity))
	result, err := conn.Search(ldap.NewSearchRequest(
		cfg.SearchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2,
		int(timeout.Seconds()),
		false,
		filter,
		[]string{"dn", "mail"},
		nil,
	))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: search: %v", ErrConnection, err)
	}

	switch len(result.Entries) {
	case 0:
		return Identity{}, ErrUserNotFound
	case 1:
	default:
		return Identity{}, ErrAmbiguousUser
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, secret); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("%w: user bind: %v", ErrConnection, err)
	}

	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = identity
	}
	return Identity{DN: entry.DN, Email: email}, nil
}

// DialLDAP connects to cfg.URL, retrying transient network failures.
func DialLDAP(ctx context.Context, cfg companydomain.LdapAuthConfig, timeout time.Duration) (Conn, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.AllowUnauthorizedCert} //nolint:gosec // admin opt-in
	if u := strings.ToLower(cfg.URL); strings.HasPrefix(u, "ldaps://") {
		if host, _, err := net.SplitHostPort(strings.TrimPrefix(u, "ldaps://")); err == nil {
			tlsConfig.ServerName = host
		}
	}

	return retry.DoWithData(
		func() (Conn, error) {
			conn, err := ldap.DialURL(cfg.URL,
				ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
				ldap.DialWithTLSConfig(tlsConfig),
			)
			if err != nil {
				return nil, err
			}
			conn.SetTimeout(timeout)
			return &ldapConn{Conn: conn}, nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

type ldapConn struct {
	*ldap.Conn
}

func (c *ldapConn) Close() error {
	c.Conn.Close()
	return nil
}
