package billing

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so callers can react without parsing
// messages. Storage detail is wrapped but never leaks into Message.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindStorage      Kind = "storage"
)

// Error is the engine's error type: a stable kind plus a human-readable
// reason.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func conflictErr(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func invalidStateErr(format string, args ...interface{}) *Error {
	return newError(KindInvalidState, format, args...)
}

func validationErr(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func storageErr(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage operation failed", Err: err}
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return kindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return kindOf(err) == KindConflict }
func IsInvalidState(err error) bool { return kindOf(err) == KindInvalidState }
func IsValidation(err error) bool   { return kindOf(err) == KindValidation }
func IsStorage(err error) bool      { return kindOf(err) == KindStorage }
