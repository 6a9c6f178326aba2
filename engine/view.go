package engine

import (
	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// ROW VIEW — Zero-Copy Row Access
// ============================================================================
// The engine never mutates caller rows. Filters narrow a view to an index
// list; transforms that add fields copy only the rows they touch.
//
// Implementations:
//   SliceView   — wraps []chart.Datum
//   SubView     — filtered subset (indices into parent)
//   ConcatView  — virtual concatenation of two views
// ============================================================================

// RowView provides indexed access to a row set.
type RowView interface {
	Len() int
	Row(i int) chart.Datum
}

// SliceView wraps a row slice as a RowView.
type SliceView struct {
	rows []chart.Datum
}

// NewSliceView creates a RowView over rows. The slice is not copied.
func NewSliceView(rows []chart.Datum) RowView {
	return &SliceView{rows: rows}
}

func (v *SliceView) Len() int { return len(v.rows) }

func (v *SliceView) Row(i int) chart.Datum {
	if i < 0 || i >= len(v.rows) {
		return nil
	}
	return v.rows[i]
}

// SubView is a filtered subset of a parent view.
type SubView struct {
	parent  RowView
	indices []int
}

func newSubView(parent RowView, indices []int) RowView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Row(i int) chart.Datum {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Row(v.indices[i])
}

// ConcatView logically concatenates two views.
type ConcatView struct {
	a, b RowView
}

// NewConcatView returns a view of a's rows followed by b's.
func NewConcatView(a, b RowView) RowView {
	return &ConcatView{a: a, b: b}
}

func (v *ConcatView) Len() int { return v.a.Len() + v.b.Len() }

func (v *ConcatView) Row(i int) chart.Datum {
	if i < v.a.Len() {
		return v.a.Row(i)
	}
	return v.b.Row(i - v.a.Len())
}

// Rows materializes a view into a slice. Rows are shared, not copied.
func Rows(v RowView) []chart.Datum {
	out := make([]chart.Datum, v.Len())
	for i := range out {
		out[i] = v.Row(i)
	}
	return out
}

// partitions groups view indices by groupBy fields in first-seen order.
func partitions(v RowView, groupBy []string) [][]int {
	index := make(map[string]int)
	var out [][]int
	for i := 0; i < v.Len(); i++ {
		key := groupKey(v.Row(i), groupBy)
		p, ok := index[key]
		if !ok {
			p = len(out)
			index[key] = p
			out = append(out, nil)
		}
		out[p] = append(out[p], i)
	}
	return out
}
