package pagination

import (
	"strconv"

	"github.com/daily-reflections/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds parsed offset pagination parameters.
type Query struct {
	Limit  int
	Offset int
}

// FromContext extracts and clamps limit/offset from the request.
func FromContext(c *gin.Context) Query {
	limit := parseIntOr(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)), DefaultLimit)
	offset := parseIntOr(c.DefaultQuery("offset", "0"), 0)
	return Normalize(limit, offset)
}

// Normalize clamps limit to [1, MaxLimit] and offset to >= 0.
func Normalize(limit, offset int) Query {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Query{Limit: limit, Offset: offset}
}

// Apply adds LIMIT/OFFSET to a GORM query and scans into dest.
func Apply[T any](db *gorm.DB, q Query, dest *[]T) error {
	return db.Offset(q.Offset).Limit(q.Limit).Find(dest).Error
}

// PageOf reports the window metadata for a fetched slice. A short page means no more data.
func PageOf(q Query, count int) response.Page {
	return response.Page{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Count:   count,
		HasMore: count >= q.Limit,
	}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
