package flow

import (
	"math"

	"github.com/kbukum/pipeflow/validation"
)

// Params holds the physical constants and instrument least counts of one
// run. A Calculator copies its Params at construction, so they cannot change
// while a run is in progress.
type Params struct {
	// Density is the fluid density ρ.
	Density float64 `yaml:"density" mapstructure:"density" json:"density" validate:"gt=0"`
	// Viscosity is the dynamic viscosity μ.
	Viscosity float64 `yaml:"viscosity" mapstructure:"viscosity" json:"viscosity" validate:"gt=0"`
	// LengthConstant is L in the experimental friction factor.
	LengthConstant float64 `yaml:"length_constant" mapstructure:"length_constant" json:"length_constant" validate:"gt=0"`
	// ReferenceDiameter is the calibration diameter in mm.
	ReferenceDiameter float64 `yaml:"reference_diameter" mapstructure:"reference_diameter" json:"reference_diameter" validate:"gt=0"`
	// DiameterTolerance is the absolute tolerance in mm for matching the
	// reference diameter. Zero means exact equality.
	DiameterTolerance float64 `yaml:"diameter_tolerance" mapstructure:"diameter_tolerance" json:"diameter_tolerance" validate:"gte=0"`
	// LeastCountD is the diameter resolution dD.
	LeastCountD float64 `yaml:"least_count_d" mapstructure:"least_count_d" json:"least_count_d" validate:"gte=0"`
	// LeastCountQ is the flow-rate resolution dQ.
	LeastCountQ float64 `yaml:"least_count_q" mapstructure:"least_count_q" json:"least_count_q" validate:"gte=0"`
	// LeastCountL is the length resolution dl.
	LeastCountL float64 `yaml:"least_count_l" mapstructure:"least_count_l" json:"least_count_l" validate:"gte=0"`
	// TankArea is the collecting tank cross-section A_tank.
	TankArea float64 `yaml:"tank_area" mapstructure:"tank_area" json:"tank_area" validate:"gt=0"`
	// Gravity converts the pressure-head spread into a pressure term.
	Gravity float64 `yaml:"gravity" mapstructure:"gravity" json:"gravity" validate:"gt=0"`
	// TapSpacing is the pipe length between the pressure taps.
	TapSpacing float64 `yaml:"tap_spacing" mapstructure:"tap_spacing" json:"tap_spacing" validate:"gt=0"`
}

// Default physical constants and least counts.
const (
	DefaultDensity           = 1000.0
	DefaultViscosity         = 1e-3
	DefaultLengthConstant    = 1.0
	DefaultReferenceDiameter = 9.6
	DefaultLeastCountD       = 1e-5
	DefaultLeastCountQ       = 1e-6
	DefaultLeastCountL       = 1e-3
	DefaultTankArea          = 0.077
	DefaultGravity           = 9.81
	DefaultTapSpacing        = 0.85
)

// Defaults returns the parameters of the reference apparatus.
func Defaults() Params {
	return Params{
		Density:           DefaultDensity,
		Viscosity:         DefaultViscosity,
		LengthConstant:    DefaultLengthConstant,
		ReferenceDiameter: DefaultReferenceDiameter,
		LeastCountD:       DefaultLeastCountD,
		LeastCountQ:       DefaultLeastCountQ,
		LeastCountL:       DefaultLeastCountL,
		TankArea:          DefaultTankArea,
		Gravity:           DefaultGravity,
		TapSpacing:        DefaultTapSpacing,
	}
}

// ApplyDefaults fills the fields that must be positive when they are unset.
// Tolerance and least counts are left alone because zero is meaningful.
func (p *Params) ApplyDefaults() {
	d := Defaults()
	setIfZero(&p.Density, d.Density)
	setIfZero(&p.Viscosity, d.Viscosity)
	setIfZero(&p.LengthConstant, d.LengthConstant)
	setIfZero(&p.ReferenceDiameter, d.ReferenceDiameter)
	setIfZero(&p.TankArea, d.TankArea)
	setIfZero(&p.Gravity, d.Gravity)
	setIfZero(&p.TapSpacing, d.TapSpacing)
}

func setIfZero(f *float64, v float64) {
	if *f == 0 {
		*f = v
	}
}

// Validate checks that every parameter is finite and in range.
func (p Params) Validate() error {
	v := validation.New()
	for _, f := range p.fields() {
		v.Finite(f.name, f.value)
	}
	if v.HasErrors() {
		return v.Validate()
	}
	if err := validation.Validate(p); err != nil {
		return err
	}
	v.Below("diameter_tolerance", p.DiameterTolerance, p.ReferenceDiameter)
	if v.HasErrors() {
		return v.Validate()
	}
	return nil
}

type namedValue struct {
	name  string
	value float64
}

func (p Params) fields() []namedValue {
	return []namedValue{
		{"density", p.Density},
		{"viscosity", p.Viscosity},
		{"length_constant", p.LengthConstant},
		{"reference_diameter", p.ReferenceDiameter},
		{"diameter_tolerance", p.DiameterTolerance},
		{"least_count_d", p.LeastCountD},
		{"least_count_q", p.LeastCountQ},
		{"least_count_l", p.LeastCountL},
		{"tank_area", p.TankArea},
		{"gravity", p.Gravity},
		{"tap_spacing", p.TapSpacing},
	}
}

// isReference reports whether diameter d is a calibration trial.
func (p Params) isReference(d float64) bool {
	if p.DiameterTolerance == 0 {
		return d == p.ReferenceDiameter
	}
	return math.Abs(d-p.ReferenceDiameter) <= p.DiameterTolerance
}
