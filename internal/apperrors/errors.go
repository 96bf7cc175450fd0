package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so callers can decide how to react.
type Kind string

const (
	KindAuthRequired     Kind = "auth_required"
	KindNotFound         Kind = "not_found"
	KindConversionFailed Kind = "conversion_failed"
	KindStorage          Kind = "storage_error"
	KindValidation       Kind = "validation_error"
	KindConflict         Kind = "conflict"
)

var (
	ErrAuthRequired     = &Error{Kind: KindAuthRequired, Message: "authentication required"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConversionFailed = &Error{Kind: KindConversionFailed, Message: "conversion failed"}
	ErrStorage          = &Error{Kind: KindStorage, Message: "storage unavailable"}
	ErrValidation       = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrConflict         = &Error{Kind: KindConflict, Message: "record was modified concurrently"}
)

// Error is an application error carrying a Kind. Two errors match under
// errors.Is when their kinds are equal, so wrapped errors still compare
// against the package sentinels.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// IsRetryable reports whether the caller may retry the same operation.
// Only storage errors are retryable; everything else needs different input.
func (e *Error) IsRetryable() bool {
	return e.Kind == KindStorage
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Storage(op string, err error) *Error {
	return Wrap(KindStorage, "failed to "+op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
