package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/internal/handler"
	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/internal/service"
	"github.com/noah-isme/nade-api/pkg/config"
	"github.com/noah-isme/nade-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/nade-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/nade-api/pkg/middleware/requestid"
)

type handlers struct {
	auth        *handler.AuthHandler
	students    *handler.StudentHandler
	occurrences *handler.OccurrenceHandler
	users       *handler.UserHandler
	dashboard   *handler.DashboardHandler
	reports     *handler.ReportHandler
	ops         *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, auth middleware.TokenValidator, metrics *service.MetricsService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/forgot-password", h.auth.ForgotPassword)
	authGroup.POST("/reset-password", h.auth.ResetPassword)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))
	secured.GET("/auth/me", h.auth.Me)

	editors := middleware.RequireRoles(middleware.Editors...)
	admin := middleware.AdminOnly()
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(logr, action, resource)
	}

	students := secured.Group("/students")
	students.GET("", h.students.List)
	students.GET("/:id", h.students.Get)
	students.POST("", editors, audit("create", "student"), h.students.Create)
	students.PUT("/:id", editors, audit("update", "student"), h.students.Update)
	students.DELETE("/:id", admin, audit("delete", "student"), h.students.Delete)

	occurrences := secured.Group("/occurrences")
	occurrences.GET("", h.occurrences.List)
	occurrences.GET("/:id", h.occurrences.Get)
	occurrences.GET("/:id/report.pdf", h.reports.OccurrencePDF)
	occurrences.GET("/:id/report.html", h.reports.OccurrenceHTML)
	occurrences.POST("", editors, audit("create", "occurrence"), h.occurrences.Create)
	occurrences.PUT("/:id", editors, audit("update", "occurrence"), h.occurrences.Update)
	occurrences.DELETE("/:id", admin, audit("delete", "occurrence"), h.occurrences.Delete)

	reports := secured.Group("/reports")
	reports.GET("/occurrences.pdf", h.reports.SummaryPDF)
	reports.GET("/occurrences.csv", h.reports.SummaryCSV)
	reports.GET("/occurrences.xlsx", h.reports.SummaryXLSX)

	secured.GET("/dashboard/stats", h.dashboard.Stats)

	users := secured.Group("/users", admin)
	users.GET("", h.users.List)
	users.POST("", audit("create", "user"), h.users.Create)
	users.PUT("/:id", audit("update", "user"), h.users.Update)
	users.PUT("/:id/password", audit("set_password", "user"), h.users.SetPassword)
	users.DELETE("/:id", audit("delete", "user"), h.users.Delete)

	return r
}
