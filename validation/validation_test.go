package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/kbukum/pipeflow/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "pipeflow")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "   ")
	if !v2.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorNumeric(t *testing.T) {
	tests := []struct {
		name    string
		check   func(v *Validator)
		wantErr bool
	}{
		{"positive ok", func(v *Validator) { v.Positive("density", 1000) }, false},
		{"positive zero", func(v *Validator) { v.Positive("density", 0) }, true},
		{"positive negative", func(v *Validator) { v.Positive("density", -1) }, true},
		{"positive nan", func(v *Validator) { v.Positive("density", math.NaN()) }, true},
		{"positive inf", func(v *Validator) { v.Positive("density", math.Inf(1)) }, true},
		{"finite ok", func(v *Validator) { v.Finite("x", -3) }, false},
		{"finite nan", func(v *Validator) { v.Finite("x", math.NaN()) }, true},
		{"below ok", func(v *Validator) { v.Below("tolerance", 0.1, 9.6) }, false},
		{"below equal", func(v *Validator) { v.Below("tolerance", 9.6, 9.6) }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			tc.check(v)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("expected errors=%v, got %v", tc.wantErr, v.Errors())
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("format", "csv", []string{"csv", "json"})
	if v.HasErrors() {
		t.Error("expected no error for allowed value")
	}

	v2 := New()
	v2.OneOf("format", "xml", []string{"csv", "json"})
	if !v2.HasErrors() {
		t.Error("expected error for disallowed value")
	}
	if !strings.Contains(v2.Errors()[0].Message, "csv, json") {
		t.Errorf("expected allowed list in message, got %q", v2.Errors()[0].Message)
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(false, "field", "custom message")
	if !v.HasErrors() {
		t.Fatal("expected error")
	}
	if v.Errors()[0].Message != "custom message" {
		t.Errorf("expected 'custom message', got %q", v.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	if v.Validate() != nil {
		t.Error("expected nil error when no validation errors")
	}

	v.AddError("density", "must be greater than 0")
	v.AddError("viscosity", "must be greater than 0")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "density") || !strings.Contains(appErr.Message, "viscosity") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New().
		Positive("density", 1000).
		Positive("viscosity", 0).
		Below("tolerance", 10, 9.6)
	if len(v.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(v.Errors()))
	}
}

type testParams struct {
	Density   float64 `mapstructure:"density" validate:"gt=0"`
	Tolerance float64 `mapstructure:"diameter_tolerance" validate:"gte=0"`
	Label     string  `json:"label" validate:"required"`
	Mode      string  `validate:"omitempty,oneof=exact tolerance"`
}

func TestStructValidateValid(t *testing.T) {
	p := testParams{Density: 1000, Tolerance: 0, Label: "lab-a"}
	if err := Validate(p); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	p := testParams{Density: 0, Tolerance: -1, Mode: "fuzzy"}
	err := Validate(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"density: must be greater than 0",
		"diameter_tolerance: must be at least 0",
		"label: is required",
		"mode: must be one of: exact tolerance",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatal("expected AppError")
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
}

func TestRequiredFunc(t *testing.T) {
	if err := Required("name", "x"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Required("name", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("LengthConstant"); got != "length_constant" {
		t.Errorf("expected length_constant, got %q", got)
	}
}
