package schema

import (
	"fmt"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// LINT — Field availability across a chart's transform pipeline
// ============================================================================
// Walks transforms in order, tracking the fields each row carries. A field
// is available once the source provides it or an earlier step produces it;
// an aggregate keeps only its groupby fields and outputs. Every transform
// input and encoded field must be available where it is read.
// ============================================================================

// Issue is one unavailable field reference.
type Issue struct {
	Layer  int    `json:"layer"` // -1 for the top-level spec
	Step   int    `json:"step"`  // transform index; -1 for encodings and data
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	where := "spec"
	if i.Layer >= 0 {
		where = fmt.Sprintf("layer %d", i.Layer)
	}
	if i.Step >= 0 {
		where += fmt.Sprintf(" transform %d", i.Step)
	}
	if i.Field != "" {
		return fmt.Sprintf("%s: %q %s", where, i.Field, i.Reason)
	}
	return fmt.Sprintf("%s: %s", where, i.Reason)
}

// Lint checks every field reference in spec. columns maps a source URL to
// the column names it provides.
func Lint(spec chart.Spec, columns map[string][]string) []Issue {
	l := &linter{spec: spec, columns: columns}

	var top map[string]bool
	if spec.Data != nil {
		top = l.source(*spec.Data, -1)
	} else if len(spec.Layer) == 0 {
		l.add(-1, -1, "", "no data source")
	}
	if top != nil {
		top = l.walk(top, spec.Transform, -1)
		if spec.Encoding != nil {
			l.encoding(top, *spec.Encoding, -1)
		}
	}

	for i, layer := range spec.Layer {
		var avail map[string]bool
		switch {
		case layer.Data != nil:
			avail = l.source(*layer.Data, i)
		case top != nil:
			avail = clone(top)
		default:
			l.add(i, -1, "", "no data source")
		}
		if avail == nil {
			continue
		}
		avail = l.walk(avail, layer.Transform, i)
		if layer.Encoding != nil {
			l.encoding(avail, *layer.Encoding, i)
		}
	}
	return l.issues
}

type linter struct {
	spec    chart.Spec
	columns map[string][]string
	issues  []Issue
}

func (l *linter) add(layer, step int, field, reason string) {
	l.issues = append(l.issues, Issue{Layer: layer, Step: step, Field: field, Reason: reason})
}

func (l *linter) source(d chart.Data, layer int) map[string]bool {
	cols, ok := l.columns[d.URL]
	if !ok {
		l.add(layer, -1, d.URL, "source was not profiled")
		return nil
	}
	avail := make(map[string]bool, len(cols))
	for _, c := range cols {
		avail[c] = true
	}
	return avail
}

func (l *linter) walk(avail map[string]bool, transforms []chart.Transform, layer int) map[string]bool {
	for n, t := range transforms {
		if f, ok := t.(chart.Filter); ok && f.Param != "" {
			p, found := l.spec.FindParam(f.Param)
			if !found {
				l.add(layer, n, f.Param, "is not a declared param")
			} else if field, sel := p.SelectedField(); sel && !avail[field] {
				l.add(layer, n, field, "is selected on but not available")
			}
		}
		for _, in := range t.Inputs() {
			if !avail[in] {
				l.add(layer, n, in, fmt.Sprintf("is read by %s but not available", t.Kind()))
			}
		}
		if a, ok := t.(chart.Aggregate); ok {
			avail = make(map[string]bool, len(a.GroupBy)+len(a.Ops))
		}
		for _, out := range t.Outputs() {
			avail[out] = true
		}
	}
	return avail
}

func (l *linter) encoding(avail map[string]bool, e chart.Encoding, layer int) {
	for _, f := range e.Fields() {
		if !avail[f] {
			l.add(layer, -1, f, "is encoded but not available")
		}
	}
}

func clone(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
