// Package errors contains the error types shared by the monorepo-agent
// packages, and helpers for attaching context to errors as they propagate up
// the call stack.
package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error that formats as the given text.
func New(msg string) error {
	return goErrors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goErrors.Is(err, target)
}

// contextError annotates an error with a short description of what was being
// done when the error occurred.
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext wraps `err` so that its message is prefixed with `context`.
// Returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

// RootCause strips all context added by WithContext and returns the original
// error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user, without any of the context that was added while it propagated.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates a FriendlyError with a message formatted according
// to `template`.
func NewFriendlyError(template string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(template, args...)}
}

// GetFriendlyMessage returns the message that should be shown to the user for
// `err`. If the root cause of the error is a FriendlyError, its friendly
// message is returned. Otherwise, ok is false.
func GetFriendlyMessage(err error) (msg string, ok bool) {
	friendly, ok := RootCause(err).(FriendlyError)
	if !ok {
		return "", false
	}
	return friendly.FriendlyMessage(), true
}
