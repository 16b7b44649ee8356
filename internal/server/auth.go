package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/flash"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
	"go.uber.org/zap"
)

const (
	msgLoginFailed    = "Incorrect credentials"
	msgLoginThrottled = "Too many login attempts. Please try again later"
)

type LoginRequest struct {
	Email    string `form:"username" json:"email"`
	Password string `form:"password" json:"password"`
}

func (s *Server) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Flash": s.flash.Pop(c),
	})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.redirectWithFlash(c, "/login", flash.Messages{Errors: []string{msgLoginFailed}})
		return
	}

	if allowed, wait := s.limiter.Allow(c.Request.Context(), c.ClientIP(), req.Email); !allowed {
		s.log.Info("login throttled", zap.String("client_ip", c.ClientIP()), zap.Duration("retry_after", wait))
		s.redirectWithFlash(c, "/login", flash.Messages{Errors: []string{msgLoginThrottled}})
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if !errors.Is(err, authdomain.ErrInvalidCredentials) && !errors.Is(err, authdomain.ErrUserInactive) {
			s.log.Error("login failed", zap.Error(err))
		}
		s.redirectWithFlash(c, "/login", flash.Messages{Errors: []string{msgLoginFailed}})
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	s.redirectWithFlash(c, settingsdomain.PathGeneral, flash.Messages{
		Messages: []string{"Welcome back " + result.User.Name + "!"},
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn("logout failed", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
