// Package validation provides the error types shared by the validation phase
// and the skill-manifest validator used by the skill collector.
package validation

import (
	"errors"
	"fmt"
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the field or component that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(ve), errors.Join(ve...))
}

// Unwrap exposes the collected errors to errors.Is/As.
func (ve Errors) Unwrap() []error {
	return ve
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the operation
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error, or nil.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = "Validation failed"
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}
