package app

import (
	"net/http"

	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/modules/auth/auth"
	"github.com/daily-reflections/core/internal/modules/auth/user"
	"github.com/daily-reflections/core/internal/modules/content/diary"
	"github.com/daily-reflections/core/internal/modules/system/core/health"
	"github.com/daily-reflections/core/internal/pkg/metrics"
	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api"

var appInfo = gin.H{
	"name":    "daily-reflections",
	"version": Version,
}

// Version is overridden at build time with -ldflags.
var Version = "dev"

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.RateLimit(a.rc.Raw(), middleware.DefaultRateLimit))
	api.Use(middleware.Idempotence(a.rc.Raw()))
	api.Use(middleware.NoStore())

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })

	// Infrastructure
	health.RegisterRoutes(api, db, a.rc, a.sched, authMW)

	// Auth & User
	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)

	// Journal
	diary.NewHandler(a.entries, a.pipeline, a.tasks, a.loc).RegisterRoutes(api, authMW)
}
