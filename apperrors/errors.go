package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error for transport mapping.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindUpstream          Kind = "upstream"
	KindInternal          Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int            `json:"-"`
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"-"`
	Err     error          `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can use errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = New(http.StatusBadRequest, KindValidation, "Validation error", nil)
	ErrNotFound          = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrInsufficientStock = New(http.StatusBadRequest, KindInsufficientStock, "Insufficient stock", nil)
	ErrUnauthorized      = New(http.StatusUnauthorized, KindUnauthorized, "Unauthorized", nil)
	ErrForbidden         = New(http.StatusForbidden, KindForbidden, "Forbidden", nil)
	ErrConflict          = New(http.StatusConflict, KindConflict, "Conflict", nil)
	ErrUpstream          = New(http.StatusBadGateway, KindUpstream, "Upstream error", nil)
)

func Validation(message string) *Error {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

// InsufficientStock carries the numbers a client needs to render feedback.
func InsufficientStock(message, productID, size string, requested, available int) *Error {
	e := New(http.StatusBadRequest, KindInsufficientStock, message, nil)
	e.Details = map[string]any{
		"productId": productID,
		"size":      size,
		"requested": requested,
		"available": available,
	}
	return e
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, KindConflict, message, nil)
}

func Upstream(message string, err error) *Error {
	return New(http.StatusBadGateway, KindUpstream, message, err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// Status returns the HTTP status for err, 500 for anything unclassified.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Body builds the JSON payload for err. Unclassified errors never leak their
// underlying message.
func Body(err error) gin.H {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return gin.H{"message": "Server error"}
	}
	body := gin.H{"message": appErr.Message, "error": string(appErr.Kind)}
	for k, v := range appErr.Details {
		body[k] = v
	}
	return body
}

// Respond writes err as a JSON response and aborts the handler chain.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(Status(err), Body(err))
}
