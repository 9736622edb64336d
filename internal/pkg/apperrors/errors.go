package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrValidation = errors.New("validation failed")

	ErrStateConflict = errors.New("state conflict")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")
)

// ValidationError reports a caller input defect on a single field.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

func NewValidationError(field, message string, cause error) error {
	return &ValidationError{Field: field, Message: message, Cause: cause}
}

// NotFoundError is a lookup miss for a resource kind and id.
type NotFoundError struct {
	Resource string
	ID       int64
	Cause    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Cause}
}

func NewNotFoundError(resource string, id int64, cause error) error {
	return &NotFoundError{Resource: resource, ID: id, Cause: cause}
}

// StateConflictError is a business-rule refusal tied to the current state of a record.
type StateConflictError struct {
	Resource string
	ID       int64
	State    string
	Reason   string
	Cause    error
}

func (e *StateConflictError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("%s %d: %s", e.Resource, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s %d in state %s: %s", e.Resource, e.ID, e.State, e.Reason)
}

func (e *StateConflictError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStateConflict}
	}
	return []error{ErrStateConflict, e.Cause}
}

func NewStateConflictError(resource string, id int64, state, reason string, cause error) error {
	return &StateConflictError{Resource: resource, ID: id, State: state, Reason: reason, Cause: cause}
}

// AppError carries a stable code and an operator-facing message around a lower-level cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
