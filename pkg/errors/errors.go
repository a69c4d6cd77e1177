package errors

import (
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	// ErrorTypeStructural marks rejected graph mutations: self-loops and
	// duplicate relationships. The store is left unchanged.
	ErrorTypeStructural ErrorType = "STRUCTURAL_VIOLATION"
	// ErrorTypeDangling marks relationships whose endpoints vanished after a
	// catalog refresh. Pruning is silent; the type exists for log tagging.
	ErrorTypeDangling ErrorType = "DANGLING_REFERENCE"
	// ErrorTypeIncomplete marks requests missing required parts, e.g. a merge
	// with zero relationships or a manual form with a missing field.
	ErrorTypeIncomplete ErrorType = "INCOMPLETE_REQUEST"
	// ErrorTypeCollaborator marks failures of the external analysis backend.
	ErrorTypeCollaborator ErrorType = "COLLABORATOR_FAILURE"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewStructural creates a structural-violation error
func NewStructural(message string) error {
	return &AppError{
		Type:    ErrorTypeStructural,
		Message: message,
	}
}

// NewIncomplete creates an incomplete-request error
func NewIncomplete(message string) error {
	return &AppError{
		Type:    ErrorTypeIncomplete,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewCollaborator creates a collaborator-failure error
func NewCollaborator(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeCollaborator,
		Message: message,
		Err:     err,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

// IsStructural checks if an error is a structural-violation error
func IsStructural(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeStructural
}

// IsIncomplete checks if an error is an incomplete-request error
func IsIncomplete(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeIncomplete
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeNotFound
}

// IsCollaborator checks if an error is a collaborator-failure error
func IsCollaborator(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeCollaborator
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeInternal
}
