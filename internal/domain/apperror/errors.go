// Package apperror holds the expected failure outcomes of the user use-cases.
// The set is closed: only types in this package implement Error.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Error is implemented by ValidationError, ConflictError and NotFoundError.
type Error interface {
	error
	Code() string
	sealed()
}

// FieldError is a single violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() string { return "VALIDATION_ERROR" }
func (e *ValidationError) sealed()      {}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidation builds a ValidationError with a single violation.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ConflictError reports a write that would break a uniqueness invariant.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case "username":
		return fmt.Sprintf("Username '%s' is already taken", e.Value)
	case "email":
		return fmt.Sprintf("Email '%s' is already registered", e.Value)
	}
	return "Resource already exists"
}

func (e *ConflictError) Code() string { return "CONFLICT" }
func (e *ConflictError) sealed()      {}

// NotFoundError reports a lookup that matched nothing.
// Key names the lookup attribute (id, username, email).
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" || e.Key == "id" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.Value)
	}
	return fmt.Sprintf("%s with %s '%s' not found", e.Resource, e.Key, e.Value)
}

func (e *NotFoundError) Code() string { return "NOT_FOUND" }
func (e *NotFoundError) sealed()      {}

// UserNotFound is a shorthand for the only resource this service owns.
func UserNotFound(key, value string) *NotFoundError {
	return &NotFoundError{Resource: "User", Key: key, Value: value}
}

// As extracts the typed application error from err's chain.
func As(err error) (Error, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	var ne *NotFoundError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
