package engine

import (
	"fmt"
	"sort"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// AGGREGATORS — Grouping and Reduction via RowView
// ============================================================================
// Reduce implements the aggregate ops shared by the aggregate, joinaggregate
// and window transforms. Groups are kept in first-seen order.
// ============================================================================

// Reduce applies one aggregate op to field over the rows at indices.
// Returns nil when the op has no defined result (e.g. the mean of nothing).
func Reduce(view RowView, indices []int, op, field string) (any, error) {
	switch op {
	case "count":
		return float64(len(indices)), nil
	case "valid":
		n := 0
		for _, i := range indices {
			if Valid(view.Row(i)[field]) {
				n++
			}
		}
		return float64(n), nil
	case "distinct":
		seen := make(map[string]bool)
		for _, i := range indices {
			seen[Text(view.Row(i)[field])] = true
		}
		return float64(len(seen)), nil
	case "sum":
		return SumField(view, indices, field), nil
	case "mean", "average":
		nums := numbers(view, indices, field)
		if len(nums) == 0 {
			return nil, nil
		}
		var total float64
		for _, x := range nums {
			total += x
		}
		return total / float64(len(nums)), nil
	case "min", "max":
		nums := numbers(view, indices, field)
		if len(nums) == 0 {
			return nil, nil
		}
		m := nums[0]
		for _, x := range nums[1:] {
			if (op == "min" && x < m) || (op == "max" && x > m) {
				m = x
			}
		}
		return m, nil
	case "median":
		nums := numbers(view, indices, field)
		if len(nums) == 0 {
			return nil, nil
		}
		sort.Float64s(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 1 {
			return nums[mid], nil
		}
		return (nums[mid-1] + nums[mid]) / 2, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
}

// SumField sums the numeric values of field; non-numeric values count as 0.
func SumField(view RowView, indices []int, field string) float64 {
	var total float64
	for _, i := range indices {
		if x, ok := Number(view.Row(i)[field]); ok {
			total += x
		}
	}
	return total
}

func numbers(view RowView, indices []int, field string) []float64 {
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		if x, ok := Number(view.Row(i)[field]); ok {
			out = append(out, x)
		}
	}
	return out
}

// ApplyAggregate reduces each group to a single row holding the groupby
// fields and the op results.
func ApplyAggregate(view RowView, a chart.Aggregate) (RowView, error) {
	groups := partitions(view, a.GroupBy)
	out := make([]chart.Datum, 0, len(groups))
	for _, idx := range groups {
		first := view.Row(idx[0])
		row := make(chart.Datum, len(a.GroupBy)+len(a.Ops))
		for _, g := range a.GroupBy {
			row[g] = first[g]
		}
		for _, op := range a.Ops {
			v, err := Reduce(view, idx, op.Op, op.Field)
			if err != nil {
				return nil, err
			}
			row[op.Name()] = v
		}
		out = append(out, row)
	}
	return NewSliceView(out), nil
}

// ApplyJoinAggregate computes group reductions and copies them onto every
// row of the group, preserving input order.
func ApplyJoinAggregate(view RowView, j chart.JoinAggregate) (RowView, error) {
	out := make([]chart.Datum, view.Len())
	for _, idx := range partitions(view, j.GroupBy) {
		results := make(map[string]any, len(j.Ops))
		for _, op := range j.Ops {
			v, err := Reduce(view, idx, op.Op, op.Field)
			if err != nil {
				return nil, err
			}
			results[op.Name()] = v
		}
		for _, i := range idx {
			row := view.Row(i).Clone()
			for k, v := range results {
				row[k] = v
			}
			out[i] = row
		}
	}
	return NewSliceView(out), nil
}
