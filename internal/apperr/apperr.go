// Package apperr defines the error taxonomy the API surfaces. Failures are
// classified by wrapping a kind sentinel, so callers branch with errors.Is
// while keeping the original cause chain intact.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store operation failed")
	ErrGeneration = errors.New("generation failed")
	ErrSchema     = errors.New("unexpected row shape")
)

type Error struct {
	kind  error
	msg   string
	cause error
}

func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func Wrap(kind error, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Message returns the human-readable part of err without the cause chain,
// suitable for API responses.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.msg
	}
	return err.Error()
}
