// Package validate provides a small fluent validator for REPL command
// arguments.
package validate

import (
	"errors"
	"fmt"
)

// ErrInvalidInput indicates a validation check failed.
var ErrInvalidInput = errors.New("invalid input")

// NewErrInvalidInput creates an error wrapping ErrInvalidInput.
func NewErrInvalidInput(msg string) error {
	return fmt.Errorf("%w; %s", ErrInvalidInput, msg)
}

// New creates a Validator instance.
func New() *Validator {
	return &Validator{}
}

// Validator accumulates the first failing condition it observes; later
// checks are skipped once one has failed.
type Validator struct {
	err error
}

// Assert checks that condition is true, recording msg as the error if not.
func (v *Validator) Assert(condition bool, msg string) {
	if v.err != nil {
		return
	}
	if !condition {
		v.err = NewErrInvalidInput(msg)
	}
}

// Err returns the first validation error encountered, or nil.
func (v Validator) Err() error {
	return v.err
}
