package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

// Config is the telemetry section of the service configuration.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the section. A disabled section is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	return nil
}

// Setup installs the tracer and meter providers when tracing is enabled and
// returns the metric instruments together with a shutdown function. When
// tracing is disabled the instruments record into a no-op meter and the
// global tracer stays a no-op.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (*Metrics, func(context.Context) error, error) {
	if !cfg.Enabled {
		m, err := NewMetrics(noop.NewMeterProvider().Meter(service))
		return m, func(context.Context) error { return nil }, err
	}

	tcfg := DefaultTracerConfig(service)
	tcfg.ServiceVersion, tcfg.Environment = version, environment
	tcfg.Endpoint, tcfg.Insecure, tcfg.SampleRate = cfg.Endpoint, cfg.Insecure, cfg.SampleRate
	tp, err := InitTracer(ctx, &tcfg)
	if err != nil {
		return nil, nil, err
	}

	mcfg := DefaultMeterConfig(service)
	mcfg.ServiceVersion, mcfg.Environment = version, environment
	mcfg.Endpoint, mcfg.Insecure = cfg.Endpoint, cfg.Insecure
	if cfg.MetricInterval > 0 {
		mcfg.Interval = cfg.MetricInterval
	}
	mp, err := InitMeter(ctx, &mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}

	m, err := NewMetrics(Meter(service))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		terr := tp.Shutdown(ctx)
		merr := mp.Shutdown(ctx)
		if terr != nil {
			return terr
		}
		return merr
	}
	return m, shutdown, nil
}
