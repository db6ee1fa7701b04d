package user

import (
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
	g := rg.Group("/user", authMW)

	g.GET("", h.me)
	g.PATCH("/profile", h.updateProfile)
	g.POST("/complete-onboarding", h.completeOnboarding)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid profile")
		return
	}
	if err := dto.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) completeOnboarding(c *gin.Context) {
	u, err := h.svc.MarkOnboarded(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(u))
}
