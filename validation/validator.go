package validation

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Missing reports whether the error is about an absent required value.
func (e FieldError) Missing() bool {
	return e.Tag == "required" || e.Tag == "present"
}

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, tag, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Tag:     tag,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Present checks that value holds something other than nil.
func (v *Validator) Present(field string, value any) *Validator {
	if IsNil(reflect.ValueOf(value)) {
		v.AddError(field, "present", "is required")
	}
	return v
}

// Required checks that a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "required", "is required")
	}
	return v
}

// Positive checks that value is greater than zero. Zero is reported as a
// missing value; negative numbers as out of range.
func (v *Validator) Positive(field string, value int64) *Validator {
	switch {
	case value == 0:
		v.AddError(field, "required", "is required")
	case value < 0:
		v.AddError(field, "gt", "must be greater than 0")
	}
	return v
}

// NonNegative checks that value is not below zero.
func (v *Validator) NonNegative(field string, value int64) *Validator {
	if value < 0 {
		v.AddError(field, "gte", "must be at least 0")
	}
	return v
}

// OneOf checks if a non-empty value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, "oneof", fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, "custom", message)
	}
	return v
}
