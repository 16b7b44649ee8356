package server

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/timeoff/internal/flash"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/pkg/usererror"
	"go.uber.org/zap"
)

func (s *Server) CompanyBackup(c *gin.Context) {
	principal, _ := principalFromContext(c)

	backup, err := s.exporter.CompanySummary(c.Request.Context(), principal.User.CompanyID)
	if err != nil {
		s.log.Error("failed to download company summary",
			zap.String("company_id", principal.User.CompanyID.String()),
			zap.Error(err),
		)
		s.redirectWithFlash(c, settingsdomain.PathGeneral, flash.Messages{
			Errors: []string{"Failed to download company summary. " + failureReason(err)},
		})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": backup.Filename}))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", backup.Content)
}

func (s *Server) RemoveCompany(c *gin.Context) {
	principal, _ := principalFromContext(c)

	company, err := s.exporter.RemoveCompany(c.Request.Context(), principal.User, c.PostForm("confirm_name"))
	if err != nil {
		s.log.Warn("failed to remove company",
			zap.String("company_id", principal.User.CompanyID.String()),
			zap.String("by_user_id", principal.User.ID.String()),
			zap.Error(err),
		)
		s.redirectWithFlash(c, settingsdomain.PathGeneral, flash.Messages{
			Errors: []string{"Failed to remove company. Reason: " + failureReason(err)},
		})
		return
	}

	s.sessions.Clear(c)
	s.redirectWithFlash(c, "/", flash.Messages{
		Messages: []string{"Company " + company.Name + " and related data were successfully removed"},
	})
}

// failureReason is the user safe part of err, or a pointer to support when
// err carries none.
func failureReason(err error) string {
	if usererror.Is(err) {
		return usererror.Message(err)
	}
	return "Please contact customer service"
}
