package response

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"reflect"

	"github.com/daily-reflections/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
)

var notFoundMessages = []string{
	"This page of the journal is blank.",
	"Nothing written here yet.",
	"We looked between every line and found nothing.",
	"That reflection drifted away.",
}

// Page describes an offset window returned with list responses.
type Page struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"hasMore"`
}

// pagedResponse is the envelope for offset-paginated list responses.
type pagedResponse struct {
	Data interface{} `json:"data"`
	Page Page        `json:"page"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends an offset-paginated response.
func Paged(c *gin.Context, data interface{}, page Page) {
	c.JSON(http.StatusOK, pagedResponse{Data: data, Page: page})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "Please sign in to continue.")
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	msg := "Not Found"
	if len(notFoundMessages) > 0 {
		msg = notFoundMessages[rand.IntN(len(notFoundMessages))]
	}
	abort(c, http.StatusNotFound, msg)
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	abort(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	abort(c, http.StatusConflict, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "1")
	abort(c, http.StatusTooManyRequests, "Slow down a little, one thought at a time.")
}

// InternalError sends a 500 error response. The cause is attached to the
// gin context for the request logger and never echoed to the client.
func InternalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	abort(c, http.StatusInternalServerError, "Something went wrong on our side.")
}

// Error maps a classified error to its status code.
func Error(c *gin.Context, err error) {
	switch {
	case err == nil:
		InternalError(c, errors.New("nil error passed to response.Error"))
	case errors.Is(err, apperr.ErrDuplicateDate):
		BadRequest(c, apperr.ErrDuplicateDate.Error())
	case errors.Is(err, apperr.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(c)
	case errors.Is(err, apperr.ErrUnauthorized):
		Unauthorized(c)
	default:
		InternalError(c, err)
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}
