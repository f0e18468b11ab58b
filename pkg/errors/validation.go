package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports an option rejected by Open or by a config loader.
// It never leaves the log in a failed state.
type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Err   error  `json:"error"`
}

func NewValidationError(field string, value any, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError returns the ValidationError wrapped by err, or nil.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
