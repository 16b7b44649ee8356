package authorization

import (
	"context"

	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
)

// Service decides whether a user may perform action on object inside their
// own company.
type Service interface {
	Authorize(ctx context.Context, user *userdomain.User, object, action string) error
}
