package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition reports an operation requested in a state that forbids it.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrMalformedData reports persisted data that could not be parsed.
	ErrMalformedData = errors.New("malformed persisted data")
	// ErrConfirmationRequired reports an emergency unblock without user confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// TransitionError describes a rejected state machine operation.
type TransitionError struct {
	Op   string
	From string
}

func (err *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s from %s", ErrInvalidTransition, err.Op, err.From)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (err *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
