package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("bson"), ",", 2)[0]
			if name == "-" || name == "" {
				return lowerFirst(fld.Name)
			}
			return name
		})

		// nil interfaces and pointers never reach this function; the library
		// reports them as failures of the tag directly.
		_ = validate.RegisterValidation("present", func(fl validator.FieldLevel) bool {
			return !IsNil(fl.Field())
		})
	})
	return validate
}

// Struct validates s using struct tags and returns one FieldError per
// failing field, in declaration order. A nil result means s is valid.
func Struct(s any) []FieldError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: err.Error(), Tag: "invalid"}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Param:   e.Param(),
			Message: formatValidationError(e),
		})
	}
	return fieldErrors
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "present":
		return "is required"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "min":
		return "must have at least " + e.Param() + " elements"
	case "oneof":
		return "must be one of: " + e.Param()
	case "startswith":
		return "must start with " + e.Param()
	default:
		return "is invalid"
	}
}

// IsNil reports whether v holds no value: an invalid reflect.Value or a nil
// pointer, interface, map, slice, func or channel.
func IsNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
