package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fauna-labs/fwitter/internal/auth"
	"github.com/fauna-labs/fwitter/internal/feed"
	"github.com/fauna-labs/fwitter/internal/ratelimit"
	"github.com/fauna-labs/fwitter/internal/service"
	"github.com/fauna-labs/fwitter/internal/stats"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, stats.ErrAlreadyRefweeted),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAliasTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrUnknownFeed):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, stats.ErrFweetNotFound),
		errors.Is(err, feed.ErrTagNotFound),
		errors.Is(err, feed.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error as a JSON response. Internal failures
// are logged with their cause but only a generic message leaves the server.
func (r *Router) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
