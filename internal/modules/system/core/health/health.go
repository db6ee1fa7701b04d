package health

import (
	"context"
	"net/http"
	"time"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/pkg/cron"
	pkgredis "github.com/daily-reflections/core/internal/pkg/redis"
	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts /health, /ping and the job listing. rc may be nil
// when the server runs without Redis.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rc *pkgredis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	var cache Pinger
	if rc != nil {
		cache = rc
	}

	rg.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		dbOK := database.Ping(db) == nil
		out := gin.H{"database": dbOK}
		healthy := dbOK
		if cache != nil {
			redisOK := cache.Ping(ctx) == nil
			out["redis"] = redisOK
			healthy = healthy && redisOK
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		out["status"] = status
		c.JSON(code, out)
	})

	if sched != nil {
		rg.GET("/health/cron", authMW, func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})
	}
}
