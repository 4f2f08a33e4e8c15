package shared

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest indicates a request that could not be read (malformed body, bad path parameter).
	ErrBadRequest = errors.New("bad request")
	// ErrValidation indicates a request body that failed field validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated occurs when a protected route is called without credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden occurs when the caller lacks the role required by a route.
	ErrForbidden = errors.New("forbidden")
	// ErrRouteNotFound occurs when no handler serves the requested path and method.
	ErrRouteNotFound = errors.New("route not found")
	// ErrTooManyRequests occurs when a client exceeds the request rate limit.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrTimeout occurs when a request outlives its deadline.
	ErrTimeout = errors.New("request timed out")
)

// NotFoundError reports a missing record of the named resource.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return ErrNotFound.Error()
	}
	return e.Resource + " not found"
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates field errors in declaration order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

// Is makes ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}
