// Package errs defines the error taxonomy shared by the ordering core.
//
// Five kinds exist:
//   - ValidationError: malformed command or webhook, nothing was mutated
//   - NotFoundError: unknown order, menu item, or an order owned by someone else
//   - BusinessRuleError: a well-formed request the order rules forbid
//   - TransientError: a gateway, AI, or store dependency failed
//   - DuplicateEventError: a replayed webhook that must be acknowledged silently
//
// Callers classify with the Is* helpers, which see through %w wrapping.
package errs

import (
	"errors"
	"fmt"
)

var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// ValidationError reports input that could not be parsed or is out of range.
type ValidationError struct {
	Field   string
	Message string
	cause   error
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

func (e *ValidationError) Error() string {
	msg := "validation failed"
	if e.Field != "" {
		msg += " on " + e.Field
	}
	msg += ": " + e.Message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
	cause    error
}

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.Resource, e.ID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// BusinessRuleError reports a transition the order rules reject.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Is(target error) bool {
	_, ok := target.(*BusinessRuleError)
	return ok
}

// TransientError wraps a failure of an external dependency.
type TransientError struct {
	Dependency string
	cause      error
}

func NewTransientError(dependency string, cause error) *TransientError {
	return &TransientError{Dependency: dependency, cause: cause}
}

func (e *TransientError) Error() string {
	if e.cause == nil {
		return e.Dependency + " unavailable"
	}
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.cause)
}

func (e *TransientError) Unwrap() error { return e.cause }

func (e *TransientError) Is(target error) bool {
	_, ok := target.(*TransientError)
	return ok
}

// DuplicateEventError marks an event that was already applied.
type DuplicateEventError struct {
	EventID string
}

func NewDuplicateEventError(eventID string) *DuplicateEventError {
	return &DuplicateEventError{EventID: eventID}
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("event %s already applied", e.EventID)
}

func (e *DuplicateEventError) Is(target error) bool {
	_, ok := target.(*DuplicateEventError)
	return ok
}

func IsValidation(err error) bool   { return errors.Is(err, &ValidationError{}) }
func IsNotFound(err error) bool     { return errors.Is(err, &NotFoundError{}) }
func IsBusinessRule(err error) bool { return errors.Is(err, &BusinessRuleError{}) }
func IsTransient(err error) bool    { return errors.Is(err, &TransientError{}) }
func IsDuplicate(err error) bool    { return errors.Is(err, &DuplicateEventError{}) }
