package server

import (
	"errors"
	"net/http"

	authdomain "github.com/codequest-labs/codequest/internal/auth/domain"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var rateLimited *xpdomain.RateLimitedError
	if errors.As(err, &rateLimited) {
		return http.StatusTooManyRequests, errorPayload{
			Type:       "rate_limited",
			Message:    "rate limit exceeded",
			RetryAfter: int(rateLimited.RetryAfterSeconds),
		}
	}
	var quotaExceeded *jobdomain.QuotaExceededError
	if errors.As(err, &quotaExceeded) {
		return http.StatusTooManyRequests, errorPayload{
			Type:       "rate_limited",
			Message:    "job quota exceeded",
			RetryAfter: int(quotaExceeded.RetryAfterSeconds),
		}
	}

	switch {
	case errors.Is(err, jobdomain.ErrAlreadyTerminal):
		return http.StatusBadRequest, errorPayload{
			Type:    "cannot_cancel",
			Message: "job already in a terminal state",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, jobdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, userdomain.ErrUserExists),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, badgedomain.ErrBadgeExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, authdomain.ErrOAuthUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "oauth is not configured",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidRequest),
		errors.Is(err, userdomain.ErrInvalidDisplayName),
		errors.Is(err, badgedomain.ErrInvalidName),
		errors.Is(err, xpdomain.ErrInvalidAmount),
		errors.Is(err, jobdomain.ErrUnsupportedLanguage),
		errors.Is(err, jobdomain.ErrInvalidPayload),
		errors.Is(err, jobdomain.ErrPayloadTooLarge):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, badgedomain.ErrNotFound),
		errors.Is(err, jobdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrDevLoginDisabled),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
