// Package apperrors defines the error taxonomy shared by services and
// handlers and how each kind is rendered over HTTP.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken is returned when a confirmation code does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the policy denies an operation.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrUnauthenticated is returned when a bearer credential is missing or invalid.
	ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")
)

// NonFieldErrors is the key used for validation messages not tied to a field.
const NonFieldErrors = "non_field_errors"

// NotFound wraps ErrNotFound with the name of the missing resource.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ValidationError carries field-scoped messages for malformed or duplicate input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError holding a single message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Merge copies every message of other into e.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
}

// HasErrors reports whether any message was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e as an error, or a nil error when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Body renders the JSON body for an error. Internal errors never leak their message.
func Body(err error) any {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Fields
	case errors.Is(err, ErrInvalidToken):
		return map[string][]string{"confirmation_code": {"Invalid token"}}
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrUnauthenticated):
		return map[string]string{"error": err.Error()}
	default:
		return map[string]string{"error": "internal server error"}
	}
}
