// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the reasoning loop, LLM router, action dispatcher, and memory
// subsystem, adapted from the teacher's pkg/observability (Config/Metrics
// shape) and v2/observability (Tracer shape) into one internally
// consistent package — the two teacher trees define overlapping,
// mutually-incompatible tracer APIs, so this package keeps the ideas from
// both and wires them into a single working Tracer/Metrics pair.
package telemetry

import (
	"fmt"
	"time"
)

// Config configures the telemetry system.
type Config struct {
	Tracing TracingConfig `yaml:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool              `yaml:"enabled,omitempty"`
	Exporter       string            `yaml:"exporter,omitempty"` // otlp, stdout
	Endpoint       string            `yaml:"endpoint,omitempty"`
	SamplingRate   float64           `yaml:"sampling_rate,omitempty"`
	ServiceName    string            `yaml:"service_name,omitempty"`
	ServiceVersion string            `yaml:"service_version,omitempty"`
	Insecure       *bool             `yaml:"insecure,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Timeout        time.Duration     `yaml:"timeout,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled     bool              `yaml:"enabled,omitempty"`
	Endpoint    string            `yaml:"endpoint,omitempty"`
	Namespace   string            `yaml:"namespace,omitempty"`
	ConstLabels map[string]string `yaml:"const_labels,omitempty"`
}

const (
	defaultServiceName  = "agentcore"
	defaultMetricsPath  = "/metrics"
	defaultOTLPEndpoint = "localhost:4317"
	defaultSamplingRate = 1.0
)

// SetDefaults applies default values to Config.
func (c *Config) SetDefaults() {
	c.Tracing.setDefaults()
	c.Metrics.setDefaults()
}

// Validate checks the Config for errors.
func (c *Config) Validate() error {
	if err := c.Tracing.validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := c.Metrics.validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (c *TracingConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = defaultSamplingRate
	}
	if c.Exporter == "" {
		c.Exporter = "otlp"
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultOTLPEndpoint
	}
	if c.Insecure == nil {
		insecure := true
		c.Insecure = &insecure
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c *TracingConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %f", c.SamplingRate)
	}
	switch c.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("invalid exporter %q (valid: otlp, stdout)", c.Exporter)
	}
	return nil
}

// IsInsecure returns whether to use an insecure connection.
func (c *TracingConfig) IsInsecure() bool {
	if c.Insecure == nil {
		return true
	}
	return *c.Insecure
}

func (c *MetricsConfig) setDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultMetricsPath
	}
	if c.Namespace == "" {
		c.Namespace = defaultServiceName
	}
}

func (c *MetricsConfig) validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when metrics are enabled")
	}
	return nil
}
