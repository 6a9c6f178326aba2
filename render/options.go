package render

import (
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ============================================================================
// RENDER OPTIONS — Functional options for NewSubmitter()
// ============================================================================

// Option configures a Submitter via functional options pattern.
type Option func(*config)

type config struct {
	Logger  *zap.Logger
	Sem     *semaphore.Weighted
	Metrics *Metrics
}

// WithLogger sets the logger each outcome is reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithConcurrency caps how many renders run at once. n <= 0 means no cap.
// Submission itself never blocks; waiting happens inside each submission.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.Sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMetrics records every outcome in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.Metrics = m
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
