package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

// Response is the envelope of every JSON body.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeTenantMismatch      = "TENANT_MISMATCH"
	ErrCodeBookingConflict     = "BOOKING_CONFLICT"
	ErrCodeHoldExpired         = "HOLD_EXPIRED"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeOutsideAvailability = "OUTSIDE_AVAILABILITY"
	ErrCodeResourceInactive    = "RESOURCE_INACTIVE"
	ErrCodeRuleOverlap         = "RULE_OVERLAP"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
)

func Success(data any) *Response {
	return &Response{Success: true, Data: data}
}

func SuccessWithMeta(data any, meta *Meta) *Response {
	return &Response{Success: true, Data: data, Meta: meta}
}

func Error(code, message string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message}}
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, scheduling.ErrTenantMismatch):
		return http.StatusForbidden, ErrCodeTenantMismatch
	case errors.Is(err, scheduling.ErrNotFound), errors.Is(err, commerce.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, scheduling.ErrConflict):
		return http.StatusConflict, ErrCodeBookingConflict
	case errors.Is(err, scheduling.ErrHoldExpired):
		return http.StatusGone, ErrCodeHoldExpired
	case errors.Is(err, scheduling.ErrInvalidState):
		return http.StatusConflict, ErrCodeInvalidState
	case errors.Is(err, scheduling.ErrOutsideAvailability):
		return http.StatusUnprocessableEntity, ErrCodeOutsideAvailability
	case errors.Is(err, scheduling.ErrResourceInactive):
		return http.StatusUnprocessableEntity, ErrCodeResourceInactive
	case errors.Is(err, scheduling.ErrRuleOverlap):
		return http.StatusUnprocessableEntity, ErrCodeRuleOverlap
	case errors.Is(err, scheduling.ErrInvalidRule),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidArgument),
		errors.Is(err, commerce.ErrInvalidLink):
		return http.StatusBadRequest, ErrCodeValidationFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, Error(code, msg))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Error(ErrCodeBadRequest, msg))
}
