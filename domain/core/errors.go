package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: detection run", ErrNotFound)

	// Validation errors
	ErrInvalidConductor = errors.New("conductor must be greater than 1")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptyDataset     = errors.New("dataset contains no data rows")

	// Archive errors
	ErrArchiveDisabled = errors.New("run archive not configured")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConductor) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrEmptyDataset)
}
