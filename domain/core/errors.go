package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Validation errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrInputMismatch      = errors.New("group information is inconsistent with names in data matrix")
	ErrInsufficientGroups = errors.New("number of sample groups is < 2")
	ErrBelowMinimumSize   = errors.New("one or more groups has fewer samples than minimum group size")
	ErrDuplicateID        = fmt.Errorf("%w: duplicate identifier", ErrInvalidInput)
	ErrRaggedMatrix       = fmt.Errorf("%w: row length differs from sample count", ErrInvalidInput)

	// Conditions that are reported but do not fail a computation
	ErrNoEligibleRows = errors.New("no features meet minimum group size criterion")
	ErrTooFewGroups   = errors.New("fewer than 2 groups have data")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: validation failed for %s: %s", ErrInvalidInput, field, reason)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInputMismatch)
}

// IsAbortError reports whether err is one of the eligibility aborts
func IsAbortError(err error) bool {
	return errors.Is(err, ErrInputMismatch) ||
		errors.Is(err, ErrInsufficientGroups) ||
		errors.Is(err, ErrBelowMinimumSize)
}
