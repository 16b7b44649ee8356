package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	obscontext "github.com/smallbiznis/timeoff/internal/observability/context"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
)

const contextPrincipalKey = "principal"

// WebAuthRequired resolves the session cookie into a principal. Browsers are
// sent to the login page, API callers get a 401.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			s.unauthenticated(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			s.unauthenticated(c, err)
			return
		}

		ctx := c.Request.Context()
		ctx = obscontext.WithCompanyID(ctx, principal.User.CompanyID.String())
		ctx = obscontext.WithActor(ctx, "user", principal.User.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextPrincipalKey, principal)
		c.Next()
	}
}

func (s *Server) unauthenticated(c *gin.Context, err error) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

// authorize checks the principal against the casbin policy for object and
// action.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal.User, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) redirectIfLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			c.Next()
			return
		}
		if _, err := s.authsvc.Authenticate(c.Request.Context(), token); err != nil {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, settingsdomain.PathGeneral)
		c.Abort()
	}
}

func principalFromContext(c *gin.Context) (*authdomain.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*authdomain.Principal)
	if !ok || principal == nil || principal.User == nil {
		return nil, false
	}
	return principal, true
}

// actor is the settings actor of the current request. Routes using it sit
// behind WebAuthRequired.
func actor(c *gin.Context) settingsdomain.Actor {
	principal, ok := principalFromContext(c)
	if !ok {
		return settingsdomain.Actor{}
	}
	return settingsdomain.Actor{
		CompanyID: principal.User.CompanyID,
		UserID:    principal.User.ID,
		Email:     principal.User.Email,
	}
}
