// Package errs defines the error taxonomy of the API.
//
// Every failure a handler can produce is an *Error carrying its HTTP
// status and the client-facing detail message. Handlers return or write
// these; response.Error turns any error into the JSON body
//
//	{ "detail": "Student not found" }
//
// The wrapped cause (Err) is for logs only and never reaches the client.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-friendly name for a failure.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindInvalidIdentifier   Kind = "INVALID_IDENTIFIER"
	KindEmptyUpdate         Kind = "EMPTY_UPDATE"
	KindNotFound            Kind = "NOT_FOUND"
	KindNotFoundOrUnchanged Kind = "NOT_FOUND_OR_UNCHANGED"
	KindIncompleteRecord    Kind = "INCOMPLETE_RECORD"
	KindUpdateFailed        Kind = "UPDATE_FAILED"
	KindDeleteFailed        Kind = "DELETE_FAILED"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// Error is a typed, HTTP-aware error.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for copies produced by WithDetail and Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail returns a copy of e with the client message replaced.
func (e *Error) WithDetail(detail string) *Error {
	clone := *e
	clone.Detail = detail
	return &clone
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// New creates an Error.
func New(kind Kind, status int, detail string) *Error {
	return &Error{Kind: kind, Status: status, Detail: detail}
}

var (
	ErrValidation          = New(KindValidation, http.StatusUnprocessableEntity, "validation failed")
	ErrInvalidIdentifier   = New(KindInvalidIdentifier, http.StatusBadRequest, "Invalid ID format")
	ErrEmptyUpdate         = New(KindEmptyUpdate, http.StatusBadRequest, "No data provided for update")
	ErrNotFound            = New(KindNotFound, http.StatusNotFound, "Student not found")
	ErrNotFoundOrUnchanged = New(KindNotFoundOrUnchanged, http.StatusNotFound, "Student not found or no change")
	ErrIncompleteRecord    = New(KindIncompleteRecord, http.StatusInternalServerError, "Student data is incomplete")
	ErrUpdateFailed        = New(KindUpdateFailed, http.StatusBadRequest, "Failed to update student")
	ErrDeleteFailed        = New(KindDeleteFailed, http.StatusBadRequest, "Failed to delete the student")
	ErrInternal            = New(KindInternal, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
)

// Validation builds a 422 with the given detail.
func Validation(detail string) *Error {
	return ErrValidation.WithDetail(detail)
}

// FromError normalises any error into an *Error. Unknown errors become
// ErrInternal with the original kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}
