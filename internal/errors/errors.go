package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates credentials failed local pre-flight checks.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInvalidCredentials indicates the identity service rejected the credentials.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeServiceUnavailable indicates the identity service could not be reached or failed.
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	// ErrCodeConcurrentLogin indicates a login was refused because another is in flight.
	ErrCodeConcurrentLogin ErrorCode = "concurrent_login"
	// ErrCodeUnknownRole indicates an identity carried no resolvable role claim.
	ErrCodeUnknownRole ErrorCode = "unknown_role"
	// ErrCodeIllegalTransition indicates a session state change the state machine forbids.
	ErrCodeIllegalTransition ErrorCode = "illegal_transition"
	// ErrCodeStaleResponse indicates a gateway result arrived after being superseded.
	ErrCodeStaleResponse ErrorCode = "stale_response"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout and ErrCodeCanceled label context failures in metrics.
	ErrCodeTimeout  ErrorCode = "timeout"
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message, safe to show to end users
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidCredentials, Message: message}
}

// ServiceUnavailable creates a new ServiceUnavailable error wrapping cause.
func ServiceUnavailable(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeServiceUnavailable,
		Message: message,
		Cause:   cause,
	}
}

// ServiceUnavailablef creates a new ServiceUnavailable error with formatted message.
func ServiceUnavailablef(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeServiceUnavailable,
		Message: fmt.Sprintf(format, args...),
	}
}

// ConcurrentLogin creates a new ConcurrentLogin error.
func ConcurrentLogin(message string) *AppError {
	return &AppError{Code: ErrCodeConcurrentLogin, Message: message}
}

// UnknownRole creates a new UnknownRole error for the given claim.
func UnknownRole(claim string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownRole,
		Message: fmt.Sprintf("no role is mapped to claim %q", claim),
	}
}

// IllegalTransition creates a new IllegalTransition error.
func IllegalTransition(from, event string) *AppError {
	return &AppError{
		Code:    ErrCodeIllegalTransition,
		Message: fmt.Sprintf("illegal session transition: %s on %s", event, from),
	}
}

// StaleResponse creates a new StaleResponse error for request sequence seq.
func StaleResponse(seq uint64) *AppError {
	return &AppError{
		Code:    ErrCodeStaleResponse,
		Message: fmt.Sprintf("login request %d was superseded", seq),
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool { return isCode(err, ErrCodeInvalidCredentials) }

// IsServiceUnavailable checks if an error is a ServiceUnavailable error.
func IsServiceUnavailable(err error) bool { return isCode(err, ErrCodeServiceUnavailable) }

// IsConcurrentLogin checks if an error is a ConcurrentLogin error.
func IsConcurrentLogin(err error) bool { return isCode(err, ErrCodeConcurrentLogin) }

// IsUnknownRole checks if an error is an UnknownRole error.
func IsUnknownRole(err error) bool { return isCode(err, ErrCodeUnknownRole) }

// IsIllegalTransition checks if an error is an IllegalTransition error.
func IsIllegalTransition(err error) bool { return isCode(err, ErrCodeIllegalTransition) }

// IsStaleResponse checks if an error is a StaleResponse error.
func IsStaleResponse(err error) bool { return isCode(err, ErrCodeStaleResponse) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the display-safe message of an AppError, or fallback.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
