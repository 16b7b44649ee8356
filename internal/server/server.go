package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/auth/session"
	"github.com/smallbiznis/timeoff/internal/authorization"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/smallbiznis/timeoff/internal/export"
	"github.com/smallbiznis/timeoff/internal/feed"
	"github.com/smallbiznis/timeoff/internal/flash"
	"github.com/smallbiznis/timeoff/internal/observability"
	obsmiddleware "github.com/smallbiznis/timeoff/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/timeoff/internal/observability/metrics"
	obstracing "github.com/smallbiznis/timeoff/internal/observability/tracing"
	"github.com/smallbiznis/timeoff/internal/ratelimit"
	referencedomain "github.com/smallbiznis/timeoff/internal/reference/domain"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	authsvc     authdomain.Service
	sessions    *session.Manager
	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	settingsSvc settingsdomain.Service
	feeds       *feed.Generator
	exporter    *export.Service
	flash       *flash.Manager
	refrepo     referencedomain.Repository
	limiter     *ratelimit.LoginLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Authsvc     authdomain.Service
	Sessions    *session.Manager
	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	SettingsSvc settingsdomain.Service
	Feeds       *feed.Generator
	Exporter    *export.Service
	Flash       *flash.Manager
	Refrepo     referencedomain.Repository
	Limiter     *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http"),
		authsvc:     p.Authsvc,
		sessions:    p.Sessions,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		settingsSvc: p.SettingsSvc,
		feeds:       p.Feeds,
		exporter:    p.Exporter,
		flash:       p.Flash,
		refrepo:     p.Refrepo,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerFeedRoutes()
	svc.registerSettingsRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	s.engine.GET("/login", s.redirectIfLoggedIn(), s.LoginPage)
	s.engine.POST("/login", s.Login)
	s.engine.POST("/logout", s.Logout)
}

func (s *Server) registerFeedRoutes() {
	s.engine.GET("/feed/:token/ical.ics", s.Feed)
}

func (s *Server) registerSettingsRoutes() {
	settings := s.engine.Group("/settings")
	settings.Use(s.WebAuthRequired())

	manage := s.authorize(authorization.ObjectSettings, authorization.ActionSettingsManage)

	settings.GET("/general/", manage, s.GeneralSettings)
	settings.POST("/company/", manage, s.UpdateCompany)
	settings.POST("/carryOverUnusedAllowance/", manage, s.CarryOverUnusedAllowance)
	settings.POST("/schedule/", manage, s.UpdateSchedule)

	settings.POST("/bankholidays/", manage, s.UpdateBankHolidays)
	settings.POST("/bankholidays/import/", manage, s.ImportBankHolidays)
	settings.POST("/bankholidays/delete/:number/", manage, s.DeleteBankHoliday)

	settings.POST("/leavetypes", manage, s.UpdateLeaveTypes)
	settings.POST("/leavetypes/delete/:id/", manage, s.DeleteLeaveType)

	settings.GET("/company/integration-api/", manage, s.IntegrationAPIPage)
	settings.POST("/company/integration-api/", manage, s.UpdateIntegrationAPI)
	settings.GET("/company/authentication/", manage, s.AuthenticationPage)
	settings.POST("/company/authentication/", manage, s.UpdateLDAPAuth)

	settings.GET("/company/backup/", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyExport), s.CompanyBackup)
	settings.POST("/company/delete/", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyDelete), s.RemoveCompany)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/countries", s.ListCountries)
	api.GET("/timezones", s.ListTimezones)
	api.GET("/audit", s.WebAuthRequired(), s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAudit)
}

func (s *Server) registerFallback() {
	s.engine.GET("/", func(c *gin.Context) {
		if _, ok := s.sessions.ReadToken(c); ok {
			c.Redirect(http.StatusFound, settingsdomain.PathGeneral)
			return
		}
		c.Redirect(http.StatusFound, "/login")
	})
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
