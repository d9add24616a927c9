package domain

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Synchronous operations return these to the caller
// directly; batch paths log and isolate them per user. Wrap with the E*f
// helpers so errors.Is keeps working across layers.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrComputation = errors.New("computation error")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

// Computationf wraps ErrComputation with a formatted detail message.
func Computationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrComputation}, args...)...)
}
