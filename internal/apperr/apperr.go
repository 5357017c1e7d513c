// Package apperr defines the error kinds returned by inventory operations.
//
// Every failure an operation reports to its caller is an *Error carrying a
// Kind. Callers branch on the kind with Is or KindOf, and the HTTP layer maps
// it to a status code with HTTPStatus:
//
//	if apperr.Is(err, apperr.KindConflict) {
//	    // address was taken by someone else
//	}
//
// Errors that are not *Error (driver failures, cancelled contexts) are
// reported as KindInternal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	// KindConfig marks bad pool parameters or bad configuration values.
	KindConfig
	// KindValidation marks a missing or malformed request field.
	KindValidation
	KindNotFound
	// KindConflict marks a state clash: address already taken, rack span
	// occupied, duplicate rack position.
	KindConflict
	// KindFit marks an asset that does not fit in the rack at all.
	KindFit
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindFit:
		return "fit"
	default:
		return "internal"
	}
}

// Error is the error type returned by inventory operations.
type Error struct {
	Kind    Kind
	Message string
	// Subject names the entity the error is about, e.g. the asset occupying
	// a conflicting rack span.
	Subject string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Config(format string, args ...any) *Error {
	return New(KindConfig, format, args...)
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// NotFound returns an error for a missing entity, e.g. NotFound("rack", id).
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id), Subject: id}
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Fit(format string, args ...any) *Error {
	return New(KindFit, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// SubjectOf returns the Subject of the first *Error in err's chain.
func SubjectOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject
	}
	return ""
}

// HTTPStatus maps an error to the status code the handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindConfig, KindValidation, KindFit:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a user. Internal errors are reduced
// to a generic message so driver details never reach a page.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
