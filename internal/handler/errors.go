package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/service"
	"github.com/BloggingApp/threadly/internal/thread"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized   = errors.New("user is not authorized")
	errInvalidPostID   = errors.New("invalid post ID")
	errInvalidID       = errors.New("invalid ID")
	errInvalidParentID = errors.New("invalid parent ID")
	errInvalidPaging   = errors.New("limit and offset must be int")
	errRateLimited     = errors.New("rate limit exceeded")
	errSessionNotFound = errors.New("thread session not found")
	errNotSessionOwner = errors.New("thread session belongs to another user")
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, thread.ErrUnknownComment):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrValidation), errors.Is(err, model.ErrUnknownSortOption):
		return http.StatusBadRequest
	case errors.Is(err, thread.ErrNoReplyTarget):
		return http.StatusConflict
	case errors.Is(err, thread.ErrClosed):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func errorResponse(c *gin.Context, err error) {
	c.JSON(statusFromError(err), dto.NewErrorResponse(err))
}
