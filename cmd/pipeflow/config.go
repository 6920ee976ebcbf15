package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/kbukum/pipeflow/config"
	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/server"
	"github.com/kbukum/pipeflow/table"
)

const serviceName = "pipeflow"

// Config is the full configuration of the pipeflow binary.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Physics   flow.Params          `yaml:"physics" mapstructure:"physics"`
	Output    OutputConfig         `yaml:"output" mapstructure:"output"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// OutputConfig controls how computed tables are written.
type OutputConfig struct {
	// Delimiter separates CSV fields on input and output.
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	// KeepIntermediate keeps the calibration column E.
	KeepIntermediate bool `yaml:"keep_intermediate" mapstructure:"keep_intermediate"`
	// NullToken is written for cells that could not be computed.
	NullToken string `yaml:"null_token" mapstructure:"null_token"`
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Physics.ApplyDefaults()
	if c.Output.Delimiter == "" {
		c.Output.Delimiter = ","
	}
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return fmt.Errorf("output.delimiter must be a single character (got: %q)", c.Output.Delimiter)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// CSVOptions returns the table options matching the output section.
func (c *Config) CSVOptions() []table.CSVOption {
	comma, _ := utf8.DecodeRuneInString(c.Output.Delimiter)
	opts := []table.CSVOption{table.WithComma(comma)}
	if c.Output.NullToken != "" {
		opts = append(opts, table.WithNullToken(c.Output.NullToken))
	}
	return opts
}

// physicsDefaults seeds the physics keys so a config file that sets only
// some of them keeps the documented values for the rest, zero least counts
// included.
func physicsDefaults() map[string]any {
	p := flow.Defaults()
	return map[string]any{
		"physics.density":            p.Density,
		"physics.viscosity":          p.Viscosity,
		"physics.length_constant":    p.LengthConstant,
		"physics.reference_diameter": p.ReferenceDiameter,
		"physics.diameter_tolerance": p.DiameterTolerance,
		"physics.least_count_d":      p.LeastCountD,
		"physics.least_count_q":      p.LeastCountQ,
		"physics.least_count_l":      p.LeastCountL,
		"physics.tank_area":          p.TankArea,
		"physics.gravity":            p.Gravity,
		"physics.tap_spacing":        p.TapSpacing,
	}
}

// loadConfig resolves, defaults and validates the configuration. An empty
// path searches the standard locations.
func loadConfig(path string) (*Config, error) {
	opts := []config.LoaderOption{config.WithDefaults(physicsDefaults())}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}
