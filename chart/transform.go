package chart

import (
	"encoding/json"
)

// ============================================================================
// TRANSFORMS — Ordered, declarative data-shaping steps
// ============================================================================
// Transform is a sealed tagged variant. Each concrete type marshals to the
// Vega-Lite transform object the external renderer evaluates. Filter and
// Calculate additionally carry a Go function with the same semantics as their
// expression, so the engine package can evaluate a spec locally.
// ============================================================================

// Params maps parameter names to their current values.
type Params map[string]any

// Transform is one step of a spec's transform list.
type Transform interface {
	// Kind is the Vega-Lite transform name ("filter", "calculate", ...).
	Kind() string
	// Outputs lists the fields the step adds to each row.
	Outputs() []string
	// Inputs lists the fields the step reads.
	Inputs() []string

	isTransform()
}

// ── Filter ────────────────────────────────────────────────────────────────────

// Filter keeps rows matching a predicate expression or a parameter selection.
// Exactly one of Expr or Param is set.
type Filter struct {
	Expr  string
	Param string
	// Uses names the fields Expr reads.
	Uses []string
	// Test evaluates Expr locally. Params carries current parameter values.
	Test func(d Datum, p Params) bool
}

func (Filter) Kind() string { return "filter" }
func (Filter) Outputs() []string { return nil }
func (f Filter) Inputs() []string { return f.Uses }
func (Filter) isTransform() {}

// MarshalJSON emits {"filter": expr} or {"filter": {"param": name, "empty": false}}.
// An empty selection matches no rows.
func (f Filter) MarshalJSON() ([]byte, error) {
	if f.Param != "" {
		return json.Marshal(map[string]any{"filter": map[string]any{"param": f.Param, "empty": false}})
	}
	return json.Marshal(map[string]string{"filter": f.Expr})
}

// ── Calculate ─────────────────────────────────────────────────────────────────

// Calculate derives a new field from an expression.
type Calculate struct {
	Expr string          `json:"calculate"`
	As   string          `json:"as"`
	Uses []string        `json:"-"`
	Fn   func(Datum) any `json:"-"`
}

func (Calculate) Kind() string { return "calculate" }
func (c Calculate) Outputs() []string { return []string{c.As} }
func (c Calculate) Inputs() []string { return c.Uses }
func (Calculate) isTransform() {}

// ── Fold ──────────────────────────────────────────────────────────────────────

// Fold reshapes wide columns into (key, value) rows.
type Fold struct {
	Fields []string  `json:"fold"`
	As     [2]string `json:"as"`
}

func (Fold) Kind() string { return "fold" }
func (f Fold) Outputs() []string { return f.names() }
func (f Fold) Inputs() []string { return f.Fields }
func (Fold) isTransform() {}

// Names returns the key and value field names, defaulting to "key"/"value".
func (f Fold) Names() (key, value string) {
	n := f.names()
	return n[0], n[1]
}

func (f Fold) names() []string {
	key, value := f.As[0], f.As[1]
	if key == "" {
		key = "key"
	}
	if value == "" {
		value = "value"
	}
	return []string{key, value}
}

// ── Aggregate / JoinAggregate ─────────────────────────────────────────────────

// FieldOp is one aggregate or window operation.
type FieldOp struct {
	Op    string `json:"op"`
	Field string `json:"field,omitempty"`
	As    string `json:"as,omitempty"`
}

// Name returns the output field name, defaulting to "op_field".
func (o FieldOp) Name() string {
	if o.As != "" {
		return o.As
	}
	if o.Field == "" {
		return o.Op
	}
	return o.Op + "_" + o.Field
}

// Aggregate groups rows and reduces each group to one row.
type Aggregate struct {
	Ops     []FieldOp `json:"aggregate"`
	GroupBy []string  `json:"groupby,omitempty"`
}

func (Aggregate) Kind() string { return "aggregate" }

func (a Aggregate) Outputs() []string {
	out := append([]string(nil), a.GroupBy...)
	for _, op := range a.Ops {
		out = append(out, op.Name())
	}
	return out
}

func (a Aggregate) Inputs() []string { return opInputs(a.Ops, a.GroupBy) }
func (Aggregate) isTransform() {}

// JoinAggregate computes group reductions and joins them back onto each row.
type JoinAggregate struct {
	Ops     []FieldOp `json:"joinaggregate"`
	GroupBy []string  `json:"groupby,omitempty"`
}

func (JoinAggregate) Kind() string { return "joinaggregate" }
func (j JoinAggregate) Outputs() []string { return opNames(j.Ops) }
func (j JoinAggregate) Inputs() []string { return opInputs(j.Ops, j.GroupBy) }
func (JoinAggregate) isTransform() {}

// ── Window ────────────────────────────────────────────────────────────────────

// SortField orders rows by a field.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // "ascending" (default) or "descending"
}

// Descending reports whether the sort is descending.
func (s SortField) Descending() bool { return s.Order == "descending" }

// Frame bounds a window relative to the current row. A nil bound is unbounded.
type Frame struct {
	Lower *int
	Upper *int
}

// Unbounded is the whole-partition frame [null, null].
var Unbounded = &Frame{}

// MarshalJSON emits [lower, upper] with null for unbounded sides.
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int{f.Lower, f.Upper})
}

// Window computes ranked or cumulative fields over sorted partitions.
// A nil Frame means the Vega-Lite default [null, 0].
type Window struct {
	Ops         []FieldOp   `json:"window"`
	GroupBy     []string    `json:"groupby,omitempty"`
	Sort        []SortField `json:"sort,omitempty"`
	Frame       *Frame      `json:"frame,omitempty"`
	IgnorePeers bool        `json:"ignorePeers,omitempty"`
}

func (Window) Kind() string { return "window" }
func (w Window) Outputs() []string { return opNames(w.Ops) }

func (w Window) Inputs() []string {
	in := opInputs(w.Ops, w.GroupBy)
	for _, s := range w.Sort {
		in = append(in, s.Field)
	}
	return in
}

func (Window) isTransform() {}

// ── Stack ─────────────────────────────────────────────────────────────────────

// Stack lays out a field as stacked [start, end) intervals per partition.
// Offset is "zero" (default), "normalize", or "center".
type Stack struct {
	Field   string      `json:"stack"`
	GroupBy []string    `json:"groupby"`
	Offset  string      `json:"offset,omitempty"`
	Sort    []SortField `json:"sort,omitempty"`
	As      [2]string   `json:"as"`
}

func (Stack) Kind() string { return "stack" }
func (s Stack) Outputs() []string { return []string{s.As[0], s.As[1]} }

func (s Stack) Inputs() []string {
	in := append([]string{s.Field}, s.GroupBy...)
	for _, sf := range s.Sort {
		in = append(in, sf.Field)
	}
	return in
}

func (Stack) isTransform() {}

// MarshalJSON always emits a groupby array, which Vega-Lite requires.
func (s Stack) MarshalJSON() ([]byte, error) {
	type plain Stack
	p := plain(s)
	if p.GroupBy == nil {
		p.GroupBy = []string{}
	}
	return json.Marshal(p)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func opNames(ops []FieldOp) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Name())
	}
	return out
}

func opInputs(ops []FieldOp, groupBy []string) []string {
	in := append([]string(nil), groupBy...)
	for _, op := range ops {
		if op.Field != "" {
			in = append(in, op.Field)
		}
	}
	return in
}
