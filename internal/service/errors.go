package service

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a cycle or decision is asked to move
// to a state its lifecycle does not allow from where it currently is.
var ErrInvalidTransition = errors.New("invalid transition")

// ValidationError reports a rejected input field. It is returned before any
// state is written, so a caller seeing one can assume nothing was persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
