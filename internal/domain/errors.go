package domain

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed or inconsistent input: bad date
// ranges, missing required fields, a wrong validation code.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// WrapValidation wraps a failure that must surface to the caller as a
// bad-request class error while preserving the original cause.
func WrapValidation(msg string, err error) error {
	return &ValidationError{Message: msg, Err: err}
}

// NotFoundError indicates an absent booking, tool, user or wallet.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError indicates a status precondition violation: wrong state for
// the requested transition, an overlapping booking, a duplicate open refund.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ExternalServiceError indicates a collaborator call failed or returned an
// unexpected state.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func NewExternalServiceError(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
