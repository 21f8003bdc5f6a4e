// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Validation       Kind = "VALIDATION_ERROR"
	NotAuthenticated Kind = "NOT_AUTHENTICATED"
	NotFound         Kind = "NOT_FOUND"
	Conflict         Kind = "CONFLICT"
	InvalidState     Kind = "INVALID_STATE"
	Unexpected       Kind = "UNEXPECTED"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an underlying cause. The cause text is appended to the message
// so that persistence failures reach the caller verbatim.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by identity, and bare Kind templates (no message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// Kind templates for errors.Is(err, apperr.ErrNotFound) style checks.
var (
	ErrValidation       = &Error{Kind: Validation}
	ErrNotAuthenticated = &Error{Kind: NotAuthenticated}
	ErrNotFound         = &Error{Kind: NotFound}
	ErrConflict         = &Error{Kind: Conflict}
	ErrInvalidState     = &Error{Kind: InvalidState}
	ErrUnexpected       = &Error{Kind: Unexpected}
)
