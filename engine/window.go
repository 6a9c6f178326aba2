package engine

import (
	"sort"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// WINDOW — Ranked and frame-bounded fields over sorted partitions
// ============================================================================
// Rows are partitioned by groupby and ordered by the sort fields. Ranking ops
// depend only on the ordering; aggregate ops read the frame around each row.
// Frame nil means [null, 0] (cumulative). Unless IgnorePeers is set, a frame
// widens to include rows that tie with its boundary rows on the sort fields.
// Output rows keep the input order.
// ============================================================================

// ApplyWindow evaluates a window transform.
func ApplyWindow(view RowView, w chart.Window) (RowView, error) {
	out := make([]chart.Datum, view.Len())
	for _, part := range partitions(view, w.GroupBy) {
		ordered := sortIndices(view, part, w.Sort)
		peers := peerRuns(view, ordered, w.Sort)

		for pos, i := range ordered {
			row := view.Row(i).Clone()
			for _, op := range w.Ops {
				v, err := windowValue(view, ordered, peers, pos, op, w)
				if err != nil {
					return nil, err
				}
				row[op.Name()] = v
			}
			out[i] = row
		}
	}
	return NewSliceView(out), nil
}

func windowValue(view RowView, ordered []int, peers []peerRun, pos int, op chart.FieldOp, w chart.Window) (any, error) {
	n := len(ordered)
	run := peers[pos]
	switch op.Op {
	case "row_number":
		return float64(pos + 1), nil
	case "rank":
		return float64(run.first + 1), nil
	case "dense_rank":
		return float64(run.dense), nil
	case "percent_rank":
		if n <= 1 {
			return 0.0, nil
		}
		return float64(run.first) / float64(n-1), nil
	case "cume_dist":
		return float64(run.last+1) / float64(n), nil
	}

	lo, hi := frameBounds(pos, n, w.Frame)
	if !w.IgnorePeers && len(w.Sort) > 0 && lo <= hi {
		lo = peers[lo].first
		hi = peers[hi].last
	}
	return Reduce(view, ordered[lo:hi+1], op.Op, op.Field)
}

// frameBounds resolves a frame to inclusive positions within [0, n).
// An empty frame is returned as (0, -1).
func frameBounds(pos, n int, f *chart.Frame) (int, int) {
	lo, hi := 0, pos
	if f != nil {
		hi = n - 1
		if f.Lower != nil {
			lo = pos + *f.Lower
		}
		if f.Upper != nil {
			hi = pos + *f.Upper
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo > hi {
		return 0, -1
	}
	return lo, hi
}

// peerRun locates a row's tie group within the ordered partition.
type peerRun struct {
	first, last int // positions of the first and last peer
	dense       int // 1-based dense rank of the tie group
}

func peerRuns(view RowView, ordered []int, by []chart.SortField) []peerRun {
	runs := make([]peerRun, len(ordered))
	start, dense := 0, 0
	for pos := range ordered {
		if pos == 0 || len(by) == 0 || compareRows(view.Row(ordered[pos-1]), view.Row(ordered[pos]), by) != 0 {
			start = pos
			dense++
		}
		runs[pos] = peerRun{first: start, dense: dense}
	}
	for pos := len(ordered) - 1; pos >= 0; pos-- {
		if pos == len(ordered)-1 || runs[pos+1].first != runs[pos].first {
			runs[pos].last = pos
		} else {
			runs[pos].last = runs[pos+1].last
		}
	}
	return runs
}

// sortIndices returns a stably sorted copy of indices.
func sortIndices(view RowView, indices []int, by []chart.SortField) []int {
	out := append([]int(nil), indices...)
	if len(by) == 0 {
		return out
	}
	sort.SliceStable(out, func(a, b int) bool {
		return compareRows(view.Row(out[a]), view.Row(out[b]), by) < 0
	})
	return out
}

func compareRows(a, b chart.Datum, by []chart.SortField) int {
	for _, s := range by {
		c := Compare(a[s.Field], b[s.Field])
		if s.Descending() {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
