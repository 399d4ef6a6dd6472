// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested record was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnknownIntent indicates no query category matched the input.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrMissingParameter indicates a required slot is missing from an intent.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrUnverifiedIdentity indicates the caller's identity is not verified.
	ErrUnverifiedIdentity = errors.New("identity not verified")
)

// ValidationError represents a slot format violation.
// The message is safe to show to the user.
type ValidationError struct {
	Slot    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Slot, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(slot, message string) *ValidationError {
	return &ValidationError{
		Slot:    slot,
		Message: message,
	}
}

// AsValidationError returns the *ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
