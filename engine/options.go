package engine

import (
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Params chart.Params
	Logger *zap.Logger
	Trace  *[]Step
}

// WithParams overrides parameter values. Params not named keep their
// declared defaults.
func WithParams(params chart.Params) Option {
	return func(c *config) {
		for k, v := range params {
			c.Params[k] = v
		}
	}
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithTrace appends one Step per evaluated transform to trace.
func WithTrace(trace *[]Step) Option {
	return func(c *config) {
		c.Trace = trace
	}
}

// applyOptions creates a config seeded with the spec's default params.
func applyOptions(spec chart.Spec, opts []Option) *config {
	cfg := &config{
		Params: chart.Params(spec.DefaultParams()),
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
