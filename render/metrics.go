package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts render outcomes per target.
type Metrics struct {
	renders  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates render metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livingcost",
			Name:      "renders_total",
			Help:      "Chart render submissions by target and outcome.",
		}, []string{"target", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livingcost",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one chart.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
	}
	for _, c := range []prometheus.Collector{m.renders, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe is a no-op on a nil receiver.
func (m *Metrics) observe(target string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(target, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(target).Observe(elapsed.Seconds())
	}
}
