package middleware

import (
	"fmt"
	"time"

	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRateLimit = 50
	rateLimitWindow  = time.Second
)

// RateLimit caps anonymous clients at max requests per second per IP.
// Authenticated requests and Redis failures pass through.
func RateLimit(rdb *redis.Client, max int64) gin.HandlerFunc {
	if max <= 0 {
		max = DefaultRateLimit
	}
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("reflections:rate_limit:%s:%d", ip, time.Now().Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}
		if count > max {
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
