package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure used when reporting errors to clients.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Stage   string         `json:"stage,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Stage:   e.Stage,
			Field:   e.Field,
			Details: e.Details,
		},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsConfiguration reports whether err carries a configuration error.
func IsConfiguration(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == ErrCodeConfiguration
}

// IsValidation reports whether err carries a stage validation error.
func IsValidation(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsValidationCode(appErr.Code)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
