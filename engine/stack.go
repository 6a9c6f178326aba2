package engine

import (
	"fmt"
	"math"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// STACK & FOLD — Interval layout and wide-to-long reshaping
// ============================================================================

// ApplyStack lays out field as [start, end) intervals within each partition.
//
// Offsets:
//   zero      — positives stack up from 0, negatives stack down from 0
//   normalize — magnitudes stack from 0 and are scaled so each partition spans [0, 1]
//   center    — magnitudes stack and each partition is centred on the widest one
func ApplyStack(view RowView, s chart.Stack) (RowView, error) {
	start, end := s.As[0], s.As[1]
	if start == "" || end == "" {
		return nil, fmt.Errorf("stack %q: both output fields are required", s.Field)
	}

	parts := partitions(view, s.GroupBy)
	sums := make([]float64, len(parts))
	var widest float64
	for p, idx := range parts {
		for _, i := range idx {
			v, _ := Number(view.Row(i)[s.Field])
			sums[p] += math.Abs(v)
		}
		widest = math.Max(widest, sums[p])
	}

	out := make([]chart.Datum, view.Len())
	for p, idx := range parts {
		ordered := sortIndices(view, idx, s.Sort)
		switch s.Offset {
		case "normalize":
			scale := 0.0
			if sums[p] > 0 {
				scale = 1 / sums[p]
			}
			var acc float64
			for _, i := range ordered {
				v, _ := Number(view.Row(i)[s.Field])
				row := view.Row(i).Clone()
				row[start] = scale * acc
				acc += math.Abs(v)
				row[end] = scale * acc
				out[i] = row
			}
		case "center":
			acc := (widest - sums[p]) / 2
			for _, i := range ordered {
				v, _ := Number(view.Row(i)[s.Field])
				row := view.Row(i).Clone()
				row[start] = acc
				acc += math.Abs(v)
				row[end] = acc
				out[i] = row
			}
		case "", "zero":
			var pos, neg float64
			for _, i := range ordered {
				v, _ := Number(view.Row(i)[s.Field])
				row := view.Row(i).Clone()
				if v < 0 {
					row[start] = neg + v
					row[end] = neg
					neg += v
				} else {
					row[start] = pos
					row[end] = pos + v
					pos += v
				}
				out[i] = row
			}
		default:
			return nil, fmt.Errorf("%w: stack offset %q", ErrUnknownOp, s.Offset)
		}
	}
	return NewSliceView(out), nil
}

// ApplyFold emits one row per input row per folded field, in field order,
// each carrying the field name under key and its value under value. Output
// length is exactly view.Len() * len(f.Fields).
func ApplyFold(view RowView, f chart.Fold) RowView {
	key, value := f.Names()
	out := make([]chart.Datum, 0, view.Len()*len(f.Fields))
	for i := 0; i < view.Len(); i++ {
		src := view.Row(i)
		for _, field := range f.Fields {
			row := src.Clone()
			row[key] = field
			row[value] = src[field]
			out = append(out, row)
		}
	}
	return NewSliceView(out)
}
