package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/timeoff/internal/flash"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
)

// respond turns a pipeline result into flash messages and a redirect.
func (s *Server) respond(c *gin.Context, res *settingsdomain.Result) {
	if res.IncidentID != "" {
		c.Set("incident_id", res.IncidentID)
	}
	s.redirectWithFlash(c, res.Redirect, flash.Messages{Errors: res.Errors, Messages: res.Messages})
}

func (s *Server) redirectWithFlash(c *gin.Context, location string, msgs flash.Messages) {
	s.flash.Add(c, msgs)
	c.Redirect(http.StatusSeeOther, location)
}

func (s *Server) GeneralSettings(c *gin.Context) {
	view, err := s.settingsSvc.GeneralSettings(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.HTML(http.StatusOK, "general_settings.html", gin.H{
		"Flash": s.flash.Pop(c),
		"View":  view,
	})
}

func (s *Server) UpdateCompany(c *gin.Context) {
	s.respond(c, s.settingsSvc.UpdateCompany(c.Request.Context(), settingsdomain.UpdateCompanyRequest{
		Actor:            actor(c),
		Name:             c.PostForm("name"),
		Country:          c.PostForm("country"),
		DateFormat:       c.PostForm("date_format"),
		Timezone:         c.PostForm("timezone"),
		CarryOver:        c.PostForm("carry_over"),
		ShareAllAbsences: c.PostForm("share_all_absences"),
		IsTeamViewHidden: c.PostForm("is_team_view_hidden"),
	}))
}

func (s *Server) CarryOverUnusedAllowance(c *gin.Context) {
	s.respond(c, s.settingsSvc.CarryOverUnusedAllowance(c.Request.Context(), actor(c)))
}

func (s *Server) UpdateSchedule(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.respond(c, s.settingsSvc.UpdateSchedule(c.Request.Context(), scheduleFromForm(actor(c), c.Request.PostForm)))
}

func (s *Server) UpdateBankHolidays(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.respond(c, s.settingsSvc.UpdateBankHolidays(c.Request.Context(), bankHolidaysFromForm(actor(c), c.Request.PostForm)))
}

func (s *Server) ImportBankHolidays(c *gin.Context) {
	s.respond(c, s.settingsSvc.ImportBankHolidays(c.Request.Context(), actor(c)))
}

func (s *Server) DeleteBankHoliday(c *gin.Context) {
	s.respond(c, s.settingsSvc.DeleteBankHoliday(c.Request.Context(), actor(c), c.Param("number")))
}

func (s *Server) UpdateLeaveTypes(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.respond(c, s.settingsSvc.UpdateLeaveTypes(c.Request.Context(), leaveTypesFromForm(actor(c), c.Request.PostForm)))
}

func (s *Server) DeleteLeaveType(c *gin.Context) {
	s.respond(c, s.settingsSvc.DeleteLeaveType(c.Request.Context(), actor(c), c.Param("id")))
}

func (s *Server) IntegrationAPIPage(c *gin.Context) {
	company, err := s.settingsSvc.Company(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.HTML(http.StatusOK, "settings_company_integration_api.html", gin.H{
		"Flash":   s.flash.Pop(c),
		"Company": company,
	})
}

func (s *Server) UpdateIntegrationAPI(c *gin.Context) {
	_, regenerate := c.GetPostForm("regenerate_token")
	s.respond(c, s.settingsSvc.UpdateIntegrationAPI(c.Request.Context(), settingsdomain.UpdateIntegrationAPIRequest{
		Actor:           actor(c),
		Enabled:         c.PostForm("integration_api_enabled"),
		RegenerateToken: regenerate,
	}))
}

func (s *Server) AuthenticationPage(c *gin.Context) {
	company, err := s.settingsSvc.Company(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.HTML(http.StatusOK, "settings_company_authentication.html", gin.H{
		"Flash":   s.flash.Pop(c),
		"Company": company,
		"LDAP":    company.LDAP(),
	})
}

func (s *Server) UpdateLDAPAuth(c *gin.Context) {
	s.respond(c, s.settingsSvc.UpdateLDAPAuth(c.Request.Context(), settingsdomain.UpdateLDAPAuthRequest{
		Actor:                 actor(c),
		URL:                   c.PostForm("url"),
		BindDN:                c.PostForm("binddn"),
		BindCredentials:       c.PostForm("bindcredentials"),
		SearchBase:            c.PostForm("searchbase"),
		SearchFilter:          c.PostForm("searchfilter"),
		Enabled:               c.PostForm("ldap_auth_enabled"),
		AllowUnauthorizedCert: c.PostForm("allow_unauthorized_cert"),
		PasswordToCheck:       c.PostForm("password_to_check"),
	}))
}
