package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// InvalidInput represents a value supplied on the command line that can't be
// used.
type InvalidInput struct {
	Field  string
	Reason string
}

func (err InvalidInput) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Reason)
}

// FriendlyMessage implements FriendlyError. Invalid input is always the
// user's to fix, so there's no extra context worth hiding.
func (err InvalidInput) FriendlyMessage() string {
	return err.Error()
}
