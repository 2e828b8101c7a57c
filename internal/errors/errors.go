// Package errors defines the AppError kind hierarchy shared by every
// handler, mapping domain failures onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError so the gin error-handling middleware can map
// it onto the right HTTP status without string-matching messages.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalidParent Kind = "invalid_parent"
	KindParentRequired Kind = "parent_required"
	KindUnsupported   Kind = "unsupported"
	KindTooLarge      Kind = "too_large"
	KindNoContent     Kind = "no_content"
	KindBusy          Kind = "busy"
	KindProviderError Kind = "provider_error"
	KindBadRequest    Kind = "bad_request"
	KindInternal      Kind = "internal"
)

// statusByKind follows the documented HTTP error contract: invalid
// parent, parent required and no-text all fall into the 400 bucket,
// provider failures map to 500, and Busy maps to 503.
var statusByKind = map[Kind]int{
	KindNotFound:       http.StatusNotFound,
	KindInvalidParent:  http.StatusBadRequest,
	KindParentRequired: http.StatusBadRequest,
	KindUnsupported:    http.StatusUnprocessableEntity,
	KindTooLarge:       http.StatusRequestEntityTooLarge,
	KindNoContent:      http.StatusBadRequest,
	KindBusy:           http.StatusServiceUnavailable,
	KindProviderError:  http.StatusInternalServerError,
	KindBadRequest:     http.StatusBadRequest,
	KindInternal:       http.StatusInternalServerError,
}

// AppError is the error type every handler and service layer should
// return for any failure that needs to reach the client with a specific
// status code and a stable machine-readable kind.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code the gin middleware should write for
// this error's kind.
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New builds an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap builds an AppError of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// As reports whether err (or something it wraps) is an *AppError, per
// errors.As semantics, and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewNotFoundError(message string) *AppError      { return New(KindNotFound, message) }
func NewBadRequestError(message string) *AppError    { return New(KindBadRequest, message) }
func NewInternalServerError(message string) *AppError { return New(KindInternal, message) }
func NewInvalidParentError(message string) *AppError  { return New(KindInvalidParent, message) }
func NewParentRequiredError(message string) *AppError { return New(KindParentRequired, message) }
func NewUnsupportedError(message string) *AppError    { return New(KindUnsupported, message) }
func NewTooLargeError(message string) *AppError       { return New(KindTooLarge, message) }
func NewNoContentError(message string) *AppError      { return New(KindNoContent, message) }
func NewBusyError(message string) *AppError           { return New(KindBusy, message) }
func NewProviderError(message string, cause error) *AppError {
	return Wrap(KindProviderError, message, cause)
}
