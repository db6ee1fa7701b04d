package middleware

import (
	"strconv"

	"github.com/daily-reflections/core/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency labelled by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		done := metrics.RequestStarted()
		c.Next()
		done(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()))
	}
}
