package server

import (
	"fmt"
	"math"

	"github.com/kbukum/pipeflow/util"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "10MB"
	// MaxRows caps the trials accepted by one compute request. Zero means no cap.
	MaxRows int `yaml:"max_rows" mapstructure:"max_rows"`

	Limits LimitConfig `yaml:"limits" mapstructure:"limits"`
}

// LimitConfig controls admission to the compute API. Health and version
// probes are never limited.
type LimitConfig struct {
	// MaxConcurrent caps compute requests in flight. Zero means GOMAXPROCS.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// QueueTimeout is how long a request may wait for a slot, in
	// milliseconds. Zero rejects at once.
	QueueTimeout int `yaml:"queue_timeout" mapstructure:"queue_timeout"`
	// RequestsPerSecond is the per-client request rate. Zero disables rate
	// limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// Burst is the per-client burst size. Zero means ceil(RequestsPerSecond).
	Burst int `yaml:"burst" mapstructure:"burst"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.MaxBodySize != "" && util.ParseSize(c.MaxBodySize, -1) <= 0 {
		return fmt.Errorf("server.max_body_size must be a size such as 10MB (got: %q)", c.MaxBodySize)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("server.max_rows must be non-negative (got: %d)", c.MaxRows)
	}
	l := c.Limits
	if l.MaxConcurrent < 0 || l.QueueTimeout < 0 || l.Burst < 0 {
		return fmt.Errorf("server.limits values must be non-negative (got: %+v)", l)
	}
	if l.RequestsPerSecond < 0 || math.IsNaN(l.RequestsPerSecond) || math.IsInf(l.RequestsPerSecond, 0) {
		return fmt.Errorf("server.limits.requests_per_second must be a non-negative number (got: %v)", l.RequestsPerSecond)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
