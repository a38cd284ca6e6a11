// Package errclass provides the classified error type used across the
// console. Every failure is handled at the boundary of the operation that
// caused it; the class and code tell that boundary how to degrade.
package errclass

import (
	"errors"
	"fmt"
)

// Class represents the classification of an error for recovery logic.
type Class string

const (
	// ClassPermission indicates the actor lacks the required capability.
	// Surfaced to the user as a disabled action or explanatory message.
	ClassPermission Class = "permission"

	// ClassNotFound indicates a referenced playbook/VM/result did not resolve.
	ClassNotFound Class = "not_found"

	// ClassConflict indicates a state conflict.
	// Examples: duplicate identifiers, overlapping bulk runs.
	ClassConflict Class = "conflict"

	// ClassInvariant indicates an operation that would break a catalog
	// invariant, such as renaming or deleting the default group.
	ClassInvariant Class = "invariant"

	// ClassUpstream indicates the AI collaborator failed or returned
	// malformed content. Converted to placeholder text at the boundary.
	ClassUpstream Class = "upstream"
)

// Error represents a classified error with context.
type Error struct {
	// Class is the error classification.
	Class Class `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Subject is the entity ID that caused the error, if applicable.
	Subject string `json:"subject,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Subject != "" {
		msg += fmt.Sprintf(" (subject=%s)", e.Subject)
	}
	if e.Operation != "" {
		msg += fmt.Sprintf(" (operation=%s)", e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// WithSubject adds the offending entity ID to an error.
func (e *Error) WithSubject(id string) *Error {
	e.Subject = id
	return e
}

// WithOperation adds operation context to an error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// NewPermissionDenied creates a permission error for the given role and action.
func NewPermissionDenied(role, action string) *Error {
	return &Error{
		Class:     ClassPermission,
		Message:   fmt.Sprintf("role %s may not %s", role, action),
		Code:      CodePermissionDenied,
		Operation: action,
	}
}

// NewNotFound creates a not-found error for the given entity kind and ID.
func NewNotFound(kind, id string) *Error {
	return &Error{
		Class:   ClassNotFound,
		Message: fmt.Sprintf("%s not found", kind),
		Code:    CodeNotFound,
		Subject: id,
	}
}

// NewAlreadyExists creates a conflict error for a duplicate identifier.
func NewAlreadyExists(kind, id string) *Error {
	return &Error{
		Class:   ClassConflict,
		Message: fmt.Sprintf("%s already exists", kind),
		Code:    CodeAlreadyExists,
		Subject: id,
	}
}

// NewConflict creates a generic conflict error.
func NewConflict(message string) *Error {
	return &Error{
		Class:   ClassConflict,
		Message: message,
		Code:    CodeConflict,
	}
}

// NewInvariantViolation creates an invariant violation error.
func NewInvariantViolation(message string) *Error {
	return &Error{
		Class:   ClassInvariant,
		Message: message,
		Code:    CodeInvariant,
	}
}

// NewUpstreamFailure creates an upstream failure error wrapping err.
func NewUpstreamFailure(message string, err error) *Error {
	return &Error{
		Class:   ClassUpstream,
		Message: message,
		Code:    CodeUpstreamFailed,
		Err:     err,
	}
}

// IsPermissionDenied returns true if the error is a permission error.
func IsPermissionDenied(err error) bool {
	return hasClass(err, ClassPermission)
}

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool {
	return hasClass(err, ClassNotFound)
}

// IsConflict returns true if the error is a conflict error.
func IsConflict(err error) bool {
	return hasClass(err, ClassConflict)
}

// IsInvariantViolation returns true if the error is an invariant violation.
func IsInvariantViolation(err error) bool {
	return hasClass(err, ClassInvariant)
}

// IsUpstreamFailure returns true if the error is an upstream failure.
func IsUpstreamFailure(err error) bool {
	return hasClass(err, ClassUpstream)
}

func hasClass(err error, class Class) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Common error codes.
const (
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeConflict         = "CONFLICT"
	CodeInvariant        = "INVARIANT_VIOLATION"
	CodeUpstreamFailed   = "UPSTREAM_FAILED"
)
