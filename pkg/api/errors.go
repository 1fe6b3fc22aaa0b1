package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a harness error.
type ErrorKind string

const (
	KindMissingField       ErrorKind = "missing_field"
	KindInvalidEndpoint    ErrorKind = "invalid_endpoint"
	KindEmptyCredential    ErrorKind = "empty_credential"
	KindClientConstruction ErrorKind = "client_construction"
	KindTransport          ErrorKind = "transport"
	KindAuthentication     ErrorKind = "authentication"
	KindTimeout            ErrorKind = "timeout"
)

// Error is a structured harness error with a kind and a message.
// For missing_field errors, Fields lists every absent required field,
// not just the first one encountered.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Fields  []string  `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (fields: %s)", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Fatal reports whether the error is a configuration-time error that
// aborts the run before any scenario executes.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindMissingField, KindInvalidEndpoint, KindEmptyCredential, KindClientConstruction:
		return true
	}
	return false
}

// NewMissingFieldError creates an Error naming every absent required field.
func NewMissingFieldError(fields ...string) *Error {
	return &Error{
		Kind:    KindMissingField,
		Message: "required configuration fields are missing",
		Fields:  fields,
	}
}

// NewInvalidEndpointError creates an Error for an endpoint value that is
// not a well-formed absolute URL.
func NewInvalidEndpointError(message string) *Error {
	return &Error{
		Kind:    KindInvalidEndpoint,
		Message: message,
	}
}

// NewEmptyCredentialError creates an Error for an empty credential input.
func NewEmptyCredentialError() *Error {
	return &Error{
		Kind:    KindEmptyCredential,
		Message: "credential must not be empty",
	}
}

// NewClientConstructionError creates an Error for malformed configuration
// that escaped the loader and was caught during client construction.
func NewClientConstructionError(message string) *Error {
	return &Error{
		Kind:    KindClientConstruction,
		Message: message,
	}
}

// NewTransportError creates an Error for network or protocol failures.
func NewTransportError(message string) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: message,
	}
}

// NewAuthenticationError creates an Error for credential rejection by the
// backend (HTTP 401/403).
func NewAuthenticationError(message string) *Error {
	return &Error{
		Kind:    KindAuthentication,
		Message: message,
	}
}

// NewTimeoutError creates an Error for an exceeded wait budget.
func NewTimeoutError(message string) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: message,
	}
}

// KindOf extracts the ErrorKind from err. Errors that do not carry a kind
// are classified as transport errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}
