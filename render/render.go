package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/catalog"
	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// RENDER — Boundary to the chart renderers
// ============================================================================
// A Renderer turns one chart spec into a View for one page element. Submit
// hands a spec to a renderer and returns at once; the outcome is observed
// through the returned Pending. Every submission is independent: a failure,
// including a renderer panic, is logged and surfaced on its own Pending and
// never touches siblings.
//
// Renderers: SpecWriter (Vega-Lite JSON/YAML files), Page (vega-embed HTML),
// Preview (SVG via go-chart).
// ============================================================================

// ErrUnsupportedMark is returned by renderers that cannot draw a chart's mark.
var ErrUnsupportedMark = errors.New("unsupported mark")

// Renderer renders one chart into a target element.
type Renderer interface {
	Render(ctx context.Context, target string, spec chart.Spec) (View, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, target string, spec chart.Spec) (View, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, target string, spec chart.Spec) (View, error) {
	return f(ctx, target, spec)
}

// View is what a renderer produced for one target.
type View struct {
	Target      string
	ContentType string
	Data        []byte
	Path        string // set when the view was written to disk
}

// Pending is the deferred outcome of one submission.
type Pending struct {
	ID     string
	Target string

	done chan struct{}
	view View
	err  error
}

// Done is closed once the submission has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result blocks until the submission resolves.
func (p *Pending) Result() (View, error) {
	<-p.done
	return p.view, p.err
}

// Submitter issues render submissions.
type Submitter struct {
	cfg *config
}

// NewSubmitter creates a Submitter.
func NewSubmitter(opts ...Option) *Submitter {
	return &Submitter{cfg: applyOptions(opts)}
}

// Submit starts rendering spec into target and returns immediately.
func (s *Submitter) Submit(ctx context.Context, r Renderer, target string, spec chart.Spec) *Pending {
	p := &Pending{
		ID:     uuid.NewString(),
		Target: target,
		done:   make(chan struct{}),
	}
	go s.run(ctx, r, spec, p)
	return p
}

// SubmitAll submits every entry without waiting on any of them.
func (s *Submitter) SubmitAll(ctx context.Context, r Renderer, entries []catalog.Entry) []*Pending {
	out := make([]*Pending, len(entries))
	for i, e := range entries {
		out[i] = s.Submit(ctx, r, e.Target, e.Spec)
	}
	return out
}

func (s *Submitter) run(ctx context.Context, r Renderer, spec chart.Spec, p *Pending) {
	defer close(p.done)
	log := s.cfg.Logger.With(zap.String("target", p.Target), zap.String("submission", p.ID))

	if s.cfg.Sem != nil {
		if err := s.cfg.Sem.Acquire(ctx, 1); err != nil {
			p.err = fmt.Errorf("render %s: %w", p.Target, err)
			log.Error("chart render failed", zap.Error(p.err))
			s.cfg.Metrics.observe(p.Target, 0, p.err)
			return
		}
		defer s.cfg.Sem.Release(1)
	}

	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			p.view = View{}
			p.err = fmt.Errorf("render %s: panic: %v", p.Target, v)
			log.Error("chart render failed", zap.Error(p.err), zap.Stack("stack"))
			s.cfg.Metrics.observe(p.Target, time.Since(start), p.err)
		}
	}()

	view, err := r.Render(ctx, p.Target, spec)
	elapsed := time.Since(start)
	if err != nil {
		p.err = fmt.Errorf("render %s: %w", p.Target, err)
		log.Error("chart render failed", zap.Error(p.err), zap.Duration("elapsed", elapsed))
	} else {
		p.view = view
		log.Info("chart rendered", zap.Duration("elapsed", elapsed), zap.Int("bytes", len(view.Data)))
	}
	s.cfg.Metrics.observe(p.Target, elapsed, p.err)
}

// Wait blocks until every pending submission resolves and returns the
// failures joined, or nil when every chart rendered.
func Wait(pending []*Pending) error {
	var errs []error
	for _, p := range pending {
		if _, err := p.Result(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
