package auth

import (
	"errors"

	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/sign-up/email", h.signUp)
	a.POST("/sign-in/email", h.signIn)
	a.POST("/sign-out", authMW, h.signOut)
	a.GET("/session", authMW, h.session)
}

func (h *Handler) signUp(c *gin.Context) {
	var dto SignUpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	if err := dto.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	token, u, err := h.svc.SignUp(c.Request.Context(), &dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}
	setAuthTokenCookie(c, token)
	response.Created(c, gin.H{"token": token, "user": u})
}

func (h *Handler) signIn(c *gin.Context) {
	var dto SignInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	token, u, err := h.svc.SignIn(c.Request.Context(), dto.Email, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			response.Unauthorized(c)
			return
		}
		response.Error(c, err)
		return
	}
	setAuthTokenCookie(c, token)
	response.OK(c, gin.H{"token": token, "user": u})
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.Error(c, err)
		return
	}
	clearAuthTokenCookie(c)
	response.OK(c, gin.H{"success": true})
}

func (h *Handler) session(c *gin.Context) {
	u, s, err := h.svc.Session(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"user": u,
		"session": sessionResponse{
			ID:        s.ID,
			UserID:    s.UserID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
			IPAddress: s.IP,
			UserAgent: s.UA,
		},
	})
}
