package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
	idempotencePrefix = "reflections:idempotence:"
)

// Idempotence rejects a repeated POST/PUT/PATCH carrying the same
// x-idempotence key while the first is in flight and for 60 seconds after it
// succeeded. Failed requests release the key.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if shouldSkipIdempotence(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := resolveIdempotenceKey(c)
		if key == "" {
			c.Next()
			return
		}

		redisKey := idempotencePrefix + key
		ctx := c.Request.Context()

		ok, err := rdb.SetNX(ctx, redisKey, "0", idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			msg := "The same request is still being processed."
			if val, _ := rdb.Get(ctx, redisKey).Result(); val == "1" {
				msg = "The same request can only be sent once within 60 seconds."
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

// Auth endpoints are retried legitimately after a typo.
func shouldSkipIdempotence(path string) bool {
	p := strings.TrimRight(strings.ToLower(strings.TrimSpace(path)), "/")
	return strings.HasPrefix(p, "/api/auth/")
}

// resolveIdempotenceKey returns the client-chosen key scoped to the caller.
// Requests without the header are never deduplicated: a repeated create must
// reach the store so the date conflict is reported, and a repeated edit must
// run again.
func resolveIdempotenceKey(c *gin.Context) string {
	hdr := strings.TrimSpace(c.GetHeader(IdempotenceHeader))
	if hdr == "" {
		return ""
	}
	caller := CurrentUserID(c)
	if caller == "" {
		caller = c.ClientIP()
	}
	h := sha256.Sum256([]byte(caller + "|" + hdr))
	return hex.EncodeToString(h[:])
}
