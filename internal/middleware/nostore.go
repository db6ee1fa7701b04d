package middleware

import "github.com/gin-gonic/gin"

// NoStore marks responses as private so journal content is never cached by
// shared proxies or CDNs.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "private, max-age=0, no-cache, no-store, must-revalidate")
		h.Set("CDN-Cache-Control", "no-store")
		c.Next()
	}
}
