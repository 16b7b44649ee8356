package domain

import (
	"context"
	"time"

	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
)

type Service interface {
	// Login checks the credentials against the company's LDAP server when it
	// has LDAP authentication enabled, else against the stored password hash.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Principal, error)
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *userdomain.User
	RawToken  string
	ExpiresAt time.Time
}
