package models

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed field on a record.
type ValidationError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: invalid %s %q", e.Entity, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s is required", e.Entity, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
