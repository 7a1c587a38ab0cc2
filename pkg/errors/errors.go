package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a unique or foreign-key constraint was violated
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeUnavailable indicates the database or its connection is unavailable
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// ErrorTypeTimeout indicates an operation or transaction ran out of time
	ErrorTypeTimeout ErrorType = "TIMEOUT"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Constraint names the violated database constraint for CONFLICT errors.
	Constraint string
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewValidationErrorf formats a validation error message
func NewValidationErrorf(format string, args ...interface{}) *AppError {
	return NewValidationError(fmt.Sprintf(format, args...))
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewConstraintError creates a conflict error for a violated database constraint
func NewConstraintError(message, constraint string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		Constraint: constraint,
		Err:        err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewUnavailableError creates an error for an unreachable database engine
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND AppError
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsValidation reports whether err is a VALIDATION AppError
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsConflict reports whether err is a CONFLICT AppError
func IsConflict(err error) bool {
	return TypeOf(err) == ErrorTypeConflict
}

// IsUnavailable reports whether err is an UNAVAILABLE AppError
func IsUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeUnavailable
}

// IsTimeout reports whether err is a TIMEOUT AppError
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}
