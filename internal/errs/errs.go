package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can pick a fallback per kind.
type Kind string

const (
	KindConfiguration Kind = "CONFIGURATION"        // 500, fail fast
	KindUpstream      Kind = "UPSTREAM_UNAVAILABLE" // degrade to a fallback value
	KindValidation    Kind = "VALIDATION"           // substitute a documented default
	KindStorage       Kind = "STORAGE"              // log and continue
)

// Error is a classified error. It wraps the underlying cause when one exists.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfiguration creates a 500 error for a missing credential or setting.
func NewConfiguration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Status: 500, Message: msg}
}

// NewUpstream wraps a weather or transcription provider failure.
func NewUpstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Status: 502, Message: msg, Err: err}
}

// NewValidation creates a 400 error for a malformed request field.
func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: 400, Message: msg}
}

// NewStorage wraps a persistence failure.
func NewStorage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Status: 500, Message: op, Err: err}
}

// Is reports whether err is, or wraps, an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status carried by a classified error, or 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return 500
}
