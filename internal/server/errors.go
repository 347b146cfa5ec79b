package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/metertrack/internal/apperr"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrRouteNotFound = apperr.NotFound("route", "route_not_found")
)

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func newValidationError(field, code, message string) error {
	return apperr.Validation(field, code, message)
}

// AbortWithError maps err onto a status and the error envelope.
func AbortWithError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if logger, ok := c.Get(contextLoggerKey); ok {
			logger.(*zap.Logger).Error("request failed", zap.Error(err))
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func classify(err error) (int, errorBody) {
	var (
		validation   *apperr.ValidationError
		precondition *apperr.PreconditionError
		notFound     *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorBody{
			Type:    "validation_error",
			Code:    validation.Code,
			Message: validation.Message,
			Field:   validation.Field,
		}
	case errors.As(err, &precondition):
		return http.StatusConflict, errorBody{
			Type:    "precondition_failed",
			Code:    precondition.Code,
			Message: precondition.Message,
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorBody{
			Type:    "not_found",
			Code:    notFound.Code,
			Message: notFound.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{
			Type:    "unauthorized",
			Code:    "unauthorized",
			Message: "missing or invalid api key",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorBody{
			Type:    "forbidden",
			Code:    "forbidden",
			Message: "api key role does not allow this request",
		}
	default:
		return http.StatusInternalServerError, errorBody{
			Type:    "internal_error",
			Code:    "internal_error",
			Message: "internal server error",
		}
	}
}
