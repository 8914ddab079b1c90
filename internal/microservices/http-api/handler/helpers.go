package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"yamdb/internal/apperrors"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	requestTimeout  = 5 * time.Second
	defaultPageSize = 20
	maxPageSize     = 100
)

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes err using the shared error taxonomy. Unexpected errors are logged.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, apperrors.Body(err))
}

// bindJSON binds the request body into req, answering 400 with field errors on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, validation.FromBindingError(err).Fields)
		return false
	}
	return true
}

// pageParams reads page and page_size, clamped to sane bounds.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// idParam parses a numeric path parameter. A malformed id names no resource, so it is a 404.
func idParam(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.NotFound(resource))
		return 0, false
	}
	return id, true
}
