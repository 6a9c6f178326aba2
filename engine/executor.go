package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// EXECUTOR — Ordered transform dispatch
// ============================================================================
// Entry points: Execute(spec, rows, opts...), ExecuteLayer(...) and
// ExecuteLayers(...)
//
// Pipeline:
//   1. Seed params from the spec's declared defaults (+ WithParams overrides)
//   2. Apply each transform in declaration order
//   3. Return the resulting rows
//
// Caller rows are never mutated.
// ============================================================================

// Execute evaluates the spec's top-level transforms over rows.
func Execute(spec chart.Spec, rows []chart.Datum, opts ...Option) ([]chart.Datum, error) {
	cfg := applyOptions(spec, opts)
	view, err := apply(NewSliceView(rows), spec.Transform, spec, cfg)
	if err != nil {
		return nil, err
	}
	return Rows(view), nil
}

// ExecuteLayer evaluates the rows feeding layer i of a layered spec. A layer
// with its own data starts from rows and applies only its own transforms; a
// layer sharing the parent's data applies the parent's transforms first.
func ExecuteLayer(spec chart.Spec, i int, rows []chart.Datum, opts ...Option) ([]chart.Datum, error) {
	if i < 0 || i >= len(spec.Layer) {
		return nil, fmt.Errorf("layer %d out of range (spec has %d)", i, len(spec.Layer))
	}
	cfg := applyOptions(spec, opts)
	layer := spec.Layer[i]

	view := NewSliceView(rows)
	var err error
	if layer.Data == nil {
		if view, err = apply(view, spec.Transform, spec, cfg); err != nil {
			return nil, err
		}
	}
	if view, err = apply(view, layer.Transform, spec, cfg); err != nil {
		return nil, fmt.Errorf("layer %d: %w", i, err)
	}
	return Rows(view), nil
}

// ExecuteLayers evaluates every layer of a layered spec and concatenates the
// rows in layer order. load returns the rows of a layer's data source.
func ExecuteLayers(spec chart.Spec, load func(chart.Data) ([]chart.Datum, error), opts ...Option) ([]chart.Datum, error) {
	if len(spec.Layer) == 0 {
		return nil, fmt.Errorf("spec has no layers")
	}
	var view RowView = NewSliceView(nil)
	for i, l := range spec.Layer {
		src := spec.DataFor(l)
		if src == nil {
			return nil, fmt.Errorf("layer %d has no data source", i)
		}
		rows, err := load(*src)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out, err := ExecuteLayer(spec, i, rows, opts...)
		if err != nil {
			return nil, err
		}
		view = NewConcatView(view, NewSliceView(out))
	}
	return Rows(view), nil
}

// apply runs transforms in order. scope resolves param filters.
func apply(view RowView, transforms []chart.Transform, scope chart.Spec, cfg *config) (RowView, error) {
	for n, t := range transforms {
		before := view.Len()
		next, err := applyOne(view, t, scope, cfg.Params)
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", n, t.Kind(), err)
		}
		view = next

		cfg.Logger.Debug("transform applied",
			zap.Int("index", n),
			zap.String("kind", t.Kind()),
			zap.Int("rows_in", before),
			zap.Int("rows_out", view.Len()))
		if cfg.Trace != nil {
			*cfg.Trace = append(*cfg.Trace, Step{Kind: t.Kind(), Rows: view.Len()})
		}
	}
	return view, nil
}

func applyOne(view RowView, t chart.Transform, scope chart.Spec, params chart.Params) (RowView, error) {
	switch t := t.(type) {
	case chart.Filter:
		return ApplyFilter(view, t, scope, params)
	case chart.Calculate:
		return ApplyCalculate(view, t)
	case chart.Fold:
		return ApplyFold(view, t), nil
	case chart.Aggregate:
		return ApplyAggregate(view, t)
	case chart.JoinAggregate:
		return ApplyJoinAggregate(view, t)
	case chart.Window:
		return ApplyWindow(view, t)
	case chart.Stack:
		return ApplyStack(view, t)
	}
	return nil, fmt.Errorf("%w: transform %T", ErrUnknownOp, t)
}

// ApplyCalculate adds c.As to a copy of every row.
func ApplyCalculate(view RowView, c chart.Calculate) (RowView, error) {
	if c.Fn == nil {
		return nil, fmt.Errorf("%w: calculate %q", ErrNoEvaluator, c.Expr)
	}
	out := make([]chart.Datum, view.Len())
	for i := range out {
		row := view.Row(i).Clone()
		row[c.As] = c.Fn(row)
		out[i] = row
	}
	return NewSliceView(out), nil
}
