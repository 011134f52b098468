package errors

import (
	stderrors "errors"
	"fmt"

	"gokw/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is taken from an
// AppError cause, else derived from the domain sentinel it wraps.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, else the code of the
// domain sentinel err wraps, else CodeInternalError. nil yields "".
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeFor(err)
}

// CodeFor maps domain sentinels to error codes
func CodeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInputMismatch):
		return CodeInputMismatch
	case stderrors.Is(err, core.ErrInsufficientGroups):
		return CodeInsufficientGroups
	case stderrors.Is(err, core.ErrBelowMinimumSize):
		return CodeBelowMinGroupSize
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrInvalidInput):
		return CodeValidationError
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInputMismatch      = "INPUT_MISMATCH"
	CodeInsufficientGroups = "INSUFFICIENT_GROUPS"
	CodeBelowMinGroupSize  = "BELOW_MIN_GROUP_SIZE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Cause:   cause,
	}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
