// Package validation provides input validation utilities for pipeflow.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tags guard the
// physical parameters; the programmatic Validator covers cross-field rules.
//
// # Struct Tag Validation
//
//	type Params struct {
//	    Density float64 `mapstructure:"density" validate:"gt=0"`
//	}
//	err := validation.Validate(params)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("density", p.Density)
//	err := v.Validate()
package validation
