package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the sentinel every InvalidInputError unwraps to.
	ErrInvalidInput = errors.New("invalid input")

	ErrGameFinished = errors.New("game finished")
)

// InvalidInputError reports a malformed guess, target or score input.
// The submitted guess must be treated as rejected; no state is changed.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
