package middleware

import (
	"errors"
	"strings"

	"github.com/daily-reflections/core/internal/pkg/jwt"
	"github.com/daily-reflections/core/internal/pkg/response"
	sessionpkg "github.com/daily-reflections/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"

	// TokenCookie carries the session token for browser clients.
	TokenCookie = "reflections_token"
)

// Auth rejects requests without an active session before any handler runs.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}
		claims, err := ValidateTokenClaims(db, ExtractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		setIdentity(c, db, claims)
		c.Next()
	}
}

// OptionalAuth sets the user ID if a valid token is present, but does not block the request.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c); token != "" {
			if claims, err := ValidateTokenClaims(db, token); err == nil {
				setIdentity(c, db, claims)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, db *gorm.DB, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeySID, claims.SessionID)
	sessionpkg.Touch(db, claims.UserID, claims.SessionID)
}

// ValidateTokenClaims parses the JWT and checks its session is still active.
func ValidateTokenClaims(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(ContextKeySID)
}

// IsAuthenticated returns true if an earlier middleware resolved an identity.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// ExtractToken reads the Authorization header, then the session cookie.
func ExtractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if raw, err := c.Cookie(TokenCookie); err == nil {
		return NormalizeToken(raw)
	}
	return ""
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
