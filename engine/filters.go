package engine

import (
	"fmt"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// FILTERS — Predicate and Parameter Gates via RowView
// ============================================================================
// Each filter transform narrows the view independently, so a chain of param
// filters combines with logical AND. Returns a SubView — zero data copy.
// ============================================================================

// ApplyFilter returns a view of rows passing f.
func ApplyFilter(view RowView, f chart.Filter, spec chart.Spec, params chart.Params) (RowView, error) {
	var pass func(chart.Datum) bool

	switch {
	case f.Param != "":
		p, ok := spec.FindParam(f.Param)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, f.Param)
		}
		pass = paramPredicate(p, params[f.Param])
	case f.Test != nil:
		pass = func(d chart.Datum) bool { return f.Test(d, params) }
	default:
		return nil, fmt.Errorf("%w: filter %q", ErrNoEvaluator, f.Expr)
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pass(view.Row(i)) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices), nil
}

// paramPredicate builds the row test for a {"filter": {"param": ...}} step.
// Point selections keep rows whose selected field matches any selected value;
// an empty selection keeps nothing. Plain variables gate on truthiness.
func paramPredicate(p chart.Param, value any) func(chart.Datum) bool {
	field, ok := p.SelectedField()
	if !ok {
		keep := Truthy(value)
		return func(chart.Datum) bool { return keep }
	}

	selected := SelectedValues(value, field)
	if len(selected) == 0 {
		return func(chart.Datum) bool { return false }
	}
	set := make(map[string]bool, len(selected))
	for _, s := range selected {
		set[s] = true
	}
	return func(d chart.Datum) bool { return set[Text(d[field])] }
}

// SelectedValues extracts the values of field from a point-selection value.
// Accepts a single {field: value} map, a list of such maps, or bare values.
func SelectedValues(value any, field string) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		if x, ok := v[field]; ok {
			return []string{Text(x)}
		}
		return nil
	case []map[string]any:
		out := make([]string, 0, len(v))
		for _, m := range v {
			if x, ok := m[field]; ok {
				out = append(out, Text(x))
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, SelectedValues(item, field)...)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	}
	return []string{Text(value)}
}

// Truthy reports whether a param value counts as on: true, a non-empty
// string, or a non-zero number.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := Number(v); ok {
		return f != 0
	}
	return true
}
