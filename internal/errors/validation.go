package errors

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid configuration field.
type FieldError struct {
	// Field is the dotted key path (e.g. "queue.max_size").
	Field string
	// Message explains which rule failed.
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field error found in a single validation pass.
// It unwraps to ErrConfigInvalid so callers can use errors.Is.
type ValidationErrors struct {
	Fields []FieldError
}

// Add records a field error.
func (ve *ValidationErrors) Add(field, message string) {
	ve.Fields = append(ve.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field error was recorded.
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Fields) > 0
}

// Error implements the error interface.
func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrConfigInvalid, strings.Join(msgs, "; "))
}

// Unwrap returns ErrConfigInvalid.
func (ve *ValidationErrors) Unwrap() error {
	return ErrConfigInvalid
}

// OrNil returns ve as an error when it holds field errors, nil otherwise.
func (ve *ValidationErrors) OrNil() error {
	if ve == nil || !ve.HasErrors() {
		return nil
	}
	return ve
}
