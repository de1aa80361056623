package telemetry

import (
	"context"
	"fmt"
)

// Manager owns the lifecycle of the tracer and metrics registry, following
// the teacher's pkg/observability.Manager shape (NewManager/accessors/
// Shutdown) rebuilt against this package's self-consistent Tracer/Metrics.
type Manager struct {
	cfg     Config
	tracer  *Tracer
	metrics *Metrics
}

// NewManager builds a Manager from cfg. A nil-valued cfg's zero value
// (everything disabled) yields a Manager whose Tracer/Metrics are
// functional no-ops, so callers never need a nil check.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("telemetry: invalid config: %w", err)
	}

	tracer, err := NewTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("telemetry: init tracer: %w", err)
	}

	return &Manager{cfg: cfg, tracer: tracer, metrics: NewMetrics(cfg.Metrics)}, nil
}

// Tracer returns the tracer. Never nil: a disabled tracer is a working no-op.
func (m *Manager) Tracer() *Tracer {
	if m == nil {
		return nil
	}
	return m.tracer
}

// Metrics returns the metrics registry, or nil if metrics are disabled.
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// MetricsEndpoint returns the configured metrics HTTP path.
func (m *Manager) MetricsEndpoint() string {
	if m == nil || m.cfg.Metrics.Endpoint == "" {
		return defaultMetricsPath
	}
	return m.cfg.Metrics.Endpoint
}

// Shutdown drains the tracer's span exporter.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.tracer.Shutdown(ctx)
}
