package diary

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/modules/processing/ai"
	"github.com/daily-reflections/core/internal/pkg/pagination"
	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/daily-reflections/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
)

// Enricher starts background enrichment of an entry.
type Enricher interface {
	Trigger(entryID uint, content string)
}

// TaskLookup finds the latest ledger record of a group.
type TaskLookup interface {
	LatestByGroup(ctx context.Context, groupKey string) (*taskqueue.Task, error)
}

type Handler struct {
	svc      *Service
	enricher Enricher
	tasks    TaskLookup
	loc      *time.Location
}

// NewHandler builds the entry handler. tasks may be nil when no ledger is
// available; loc is the fallback timezone for statistics.
func NewHandler(svc *Service, enricher Enricher, tasks TaskLookup, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, enricher: enricher, tasks: tasks, loc: loc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	entries := rg.Group("/diary-entries", authMW)

	entries.GET("", h.list)
	entries.GET("/stats", h.stats)
	entries.GET("/search", h.search)
	entries.GET("/date/:date", h.getByDate)
	entries.GET("/:id", h.getByID)
	entries.GET("/:id/enrichment", h.enrichment)
	entries.POST("", h.create)
	entries.PATCH("/:id", h.update)
	entries.POST("/:id/favorite", h.toggleFavorite)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	entries, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, toResponses(entries), pagination.PageOf(q, len(entries)))
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.BadRequest(c, "search query is required")
		return
	}
	q := pagination.FromContext(c)
	entries, err := h.svc.Search(c.Request.Context(), middleware.CurrentUserID(c), query, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, toResponses(entries), pagination.PageOf(q, len(entries)))
}

func (h *Handler) getByDate(c *gin.Context) {
	date := c.Param("date")
	if err := validateDate(date); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.svc.GetByDate(c.Request.Context(), middleware.CurrentUserID(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(entry))
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(entry))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	entry, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto.Content, dto.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.enricher.Trigger(entry.ID, entry.Content)
	response.Created(c, toResponse(entry))
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdateEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	entry, err := h.svc.UpdateOwned(c.Request.Context(), middleware.CurrentUserID(c), id, dto.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	if dto.Content != nil {
		h.enricher.Trigger(entry.ID, entry.Content)
	}
	response.OK(c, toResponse(entry))
}

func (h *Handler) toggleFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.svc.ToggleFavorite(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(entry))
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.CurrentUserID(c), time.Now(), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

func (h *Handler) enrichment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	entry, err := h.svc.GetByID(ctx, middleware.CurrentUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := gin.H{"entryId": entry.ID, "enriched": entry.Enriched(), "task": nil}
	if h.tasks != nil {
		task, err := h.tasks.LatestByGroup(ctx, ai.GroupKey(entry.ID))
		switch {
		case err == nil:
			out["task"] = task
		case !errors.Is(err, taskqueue.ErrNotFound):
			// The ledger is advisory; report what the row says.
			_ = c.Error(err)
		}
	}
	response.OK(c, out)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid entry id")
		return 0, false
	}
	return uint(id), true
}
