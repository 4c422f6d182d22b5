package domain

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError marks a fatal input violation. Validation errors are
// surfaced immediately to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a validation error for a named input field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GuardFinite converts a NaN/Infinity value into a ValidationError instead
// of letting it propagate silently through downstream arithmetic.
func GuardFinite(field string, v float64) error {
	if math.IsNaN(v) {
		return NewValidationError(field, "is NaN")
	}
	if math.IsInf(v, 0) {
		return NewValidationError(field, "is infinite")
	}
	return nil
}
