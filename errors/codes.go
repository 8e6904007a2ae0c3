package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeConfiguration indicates the builder was set up with an unusable
	// collection handle or option set.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Validation errors
const (
	// ErrCodeInvalidArgument indicates a stage received a malformed argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeMissingField indicates a required stage field is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidDefinition indicates a pipeline definition file could not be parsed.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"
)

var validationCodes = map[ErrorCode]bool{
	ErrCodeInvalidArgument:   true,
	ErrCodeMissingField:      true,
	ErrCodeInvalidDefinition: true,
}

// IsValidationCode returns true if the code belongs to the validation family.
func IsValidationCode(code ErrorCode) bool {
	return validationCodes[code]
}
