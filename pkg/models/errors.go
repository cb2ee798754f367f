package models

import "fmt"

// ValidationError reports input that has the wrong shape for allocation
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InputReadError reports a roster file or sheet that could not be read
type InputReadError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *InputReadError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("could not read %q / sheet %q: %v", e.Path, e.Sheet, e.Err)
	}
	return fmt.Sprintf("could not read %q: %v", e.Path, e.Err)
}

func (e *InputReadError) Unwrap() error {
	return e.Err
}
