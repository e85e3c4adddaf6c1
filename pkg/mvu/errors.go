package mvu

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by Dispatch before Init has set a model.
var ErrNotInitialized = errors.New("mvu: program not initialized")

// CommandError reports a command that failed with something other than
// cancellation. Msg is the message whose update produced the command; it is
// nil for the command returned by Init.
type CommandError struct {
	Msg any
	Err error
}

func (e *CommandError) Error() string {
	if e.Msg == nil {
		return fmt.Sprintf("mvu: init command: %v", e.Err)
	}
	return fmt.Sprintf("mvu: command for %T: %v", e.Msg, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsCanceled reports whether err signals cancellation rather than failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
