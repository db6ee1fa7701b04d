package auth

import (
	"net/http"

	"github.com/daily-reflections/core/internal/middleware"
	sessionpkg "github.com/daily-reflections/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

func setAuthTokenCookie(c *gin.Context, token string) {
	maxAge := int(sessionpkg.DefaultTTL.Seconds())
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", secure, true)
}

func clearAuthTokenCookie(c *gin.Context) {
	secure := c.Request.TLS != nil
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", secure, true)
}
