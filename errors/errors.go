package errors

import (
	"fmt"
)

// AppError is the unified error type returned by the builder.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Stage is the pipeline stage the error concerns, if any.
	Stage string `json:"stage,omitempty"`
	// Field is the stage parameter the error concerns, if any.
	Field string `json:"field,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Configuration creates a new AppError for an unusable builder setup.
func Configuration(reason string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: reason}
}

// MissingField creates a new AppError for a required stage field that is absent.
func MissingField(stage, field string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("Field %s is required in stage %s", field, stage),
		Stage:   stage,
		Field:   field,
	}
}

// InvalidArgument creates a new AppError for a malformed stage argument.
// field may be empty when the argument as a whole is rejected.
func InvalidArgument(stage, field, reason string) *AppError {
	msg := fmt.Sprintf("Invalid argument in stage %s: %s", stage, reason)
	if field != "" {
		msg = fmt.Sprintf("Invalid field %s in stage %s: %s", field, stage, reason)
	}
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: msg,
		Stage:   stage,
		Field:   field,
	}
}

// NotADocument creates a new AppError for a stage that expects a document.
func NotADocument(stage string, got any) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("Parameter must be an object in stage %s", stage),
		Stage:   stage,
		Details: map[string]any{"type": fmt.Sprintf("%T", got)},
	}
}

// InvalidDefinition creates a new AppError for a malformed pipeline definition.
func InvalidDefinition(source string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidDefinition,
		Message: fmt.Sprintf("Invalid pipeline definition %s", source),
		Details: map[string]any{"source": source},
		Cause:   cause,
	}
}
