package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an Error so callers can decide whether to default, log or surface it.
type Kind string

const (
	KindPersistenceRead  Kind = "persistence_read"
	KindPersistenceWrite Kind = "persistence_write"
	KindFetch            Kind = "fetch"
	KindPaymentOutcome   Kind = "payment_outcome"
	KindInvalidOrder     Kind = "invalid_order"

	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) works on wrapped copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy of e with a different user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
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

// Common error types
var (
	ErrBadRequest   = New(http.StatusBadRequest, KindBadRequest, "Bad request", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, KindUnauthorized, "Unauthorized", nil)
	ErrForbidden    = New(http.StatusForbidden, KindForbidden, "Forbidden", nil)
	ErrNotFound     = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrConflict     = New(http.StatusConflict, KindConflict, "Conflict", nil)
	ErrInternal     = New(http.StatusInternalServerError, KindInternal, "Internal server error", nil)
)

// Storefront error taxonomy
var (
	ErrPersistenceRead  = New(http.StatusInternalServerError, KindPersistenceRead, "Stored unpaid orders could not be read", nil)
	ErrPersistenceWrite = New(http.StatusInternalServerError, KindPersistenceWrite, "Unpaid orders could not be saved", nil)
	ErrFetch            = New(http.StatusBadGateway, KindFetch, "Upstream request failed", nil)
	ErrPaymentOutcome   = New(http.StatusPaymentRequired, KindPaymentOutcome, "Payment failed", nil)
	ErrInvalidOrder     = New(http.StatusBadRequest, KindInvalidOrder, "Invalid order", nil)
)

// Fetch builds a FetchError for an upstream response with the given status.
func Fetch(status int, message string, err error) *Error {
	e := ErrFetch.Wrap(err)
	if message != "" {
		e.Message = message
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		e.Code = status
	}
	return e
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From converts any error into an *Error without mutating the shared values above.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

// ErrorMiddleware renders the last error attached with c.Error as JSON.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			c.JSON(appErr.Code, gin.H{"error": appErr.Message, "kind": appErr.Kind})
			c.Abort()
		}
	}
}
