package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSlug indicates a post slug that is not lowercase kebab-case
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrInvalidReactionType indicates a reaction type other than like or bookmark
	ErrInvalidReactionType = errors.New("invalid reaction type")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
	// Err is the sentinel matched by errors.Is, may be nil.
	Err error
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
