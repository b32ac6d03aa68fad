// Package services implements the application workflows over store
// interfaces, keeping the business rules testable without MongoDB.
package services

import "fmt"

// Kind classifies a service failure so controllers can pick the HTTP
// status without inspecting message text.
type Kind int

const (
	// KindValidation is malformed input (400).
	KindValidation Kind = iota
	// KindNotFound is a missing referenced entity (404).
	KindNotFound
	// KindForbidden is a role or ownership mismatch (403).
	KindForbidden
	// KindUnauthorized is a failed credential check (401).
	KindUnauthorized
	// KindConflict is a business rule rejection: insufficient stock,
	// duplicate email, invalid state transition (400).
	KindConflict
	// KindInternal is an unexpected failure (500, logged, sanitized).
	KindInternal
)

// Error is a typed service failure. Key is a message key resolved through
// i18n at the edge; Detail carries machine-readable context such as the
// offending product and the available versus requested stock.
type Error struct {
	Kind   Kind
	Key    string
	Detail map[string]interface{}
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Key, e.cause)
	}
	return e.Key
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

func (e *Error) withDetail(key string, value interface{}) *Error {
	if e.Detail == nil {
		e.Detail = map[string]interface{}{}
	}
	e.Detail[key] = value
	return e
}

// internalError wraps an unexpected store failure.
func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Key: "internal", cause: err}
}
