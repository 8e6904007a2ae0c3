// Package validation checks stage parameters before they enter a pipeline.
//
// Typed parameter records are validated with struct tags through the
// validator library. Field names in reports come from `bson` tags so they
// match the names the aggregation framework uses.
//
// # Struct Tag Validation
//
//	type LookupParams struct {
//	    From string `bson:"from" validate:"required"`
//	    As   string `bson:"as" validate:"required"`
//	}
//	errs := validation.Struct(params)
//
// The `present` tag accepts any non-nil value, including zero numbers and
// empty documents.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("count", n)
//	if v.HasErrors() { ... }
package validation
