package catalog

import (
	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

func costPressures(o *options) chart.Spec {
	spec := baseSpec("Cost Pressures by Category and Household Type", 400, chart.CSV(o.url("cost_pressures.csv")))
	spec.Transform = append(householdFold("pressure", "pressure_level"), pressureScore())

	spec.Mark = chart.MarkOf("rect")
	y := chart.Field("category", chart.Nominal, "Spending Category")
	y.Sort = "-x"
	color := chart.Field("pressure_score", chart.Quantitative, "Pressure Level")
	color.Scale = &chart.Scale{Scheme: "reds"}
	color.Legend = chart.NoLegend
	spec.Encoding = &chart.Encoding{
		X:     chart.Field("household_type_label", chart.Nominal, "Household Type"),
		Y:     y,
		Color: color,
		Tooltip: []chart.FieldDef{
			chart.Tip("category", chart.Nominal, "Category", ""),
			chart.Tip("household_type_label", chart.Nominal, "Household Type", ""),
			chart.Tip("pressure_level", chart.Nominal, "Pressure Level", ""),
			chart.Tip("primary_driver", chart.Nominal, "Primary Driver", ""),
		},
	}
	return spec
}

// Mosaic tile gaps, as fractions of the unit square.
const (
	mosaicColumnGap = 0.01
	mosaicRowGap    = 0.01 / 3
)

// pressureMosaic lays out one column per category, its width proportional to
// the category's share of folded rows, split into one tile per severity level
// with height proportional to how many household types sit at that level.
//
// Steps: count tiles, normalize categories along x, rank severities within
// and columns across categories, normalize severities within each column,
// then offset each tile by its ranks to leave gaps.
func pressureMosaic(o *options) chart.Spec {
	spec := baseSpec("Cost Pressure Mix by Category", 400, chart.CSV(o.url("cost_pressures.csv")))
	spec.Transform = append(householdFold("pressure", "pressure_level"), pressureScore())
	spec.Transform = append(spec.Transform,
		chart.Aggregate{
			Ops:     []chart.FieldOp{{Op: "count", As: "tiles"}},
			GroupBy: []string{"category", "pressure_level", "pressure_score"},
		},
		chart.Stack{
			Field:  "tiles",
			Offset: "normalize",
			Sort:   []chart.SortField{{Field: "category"}},
			As:     [2]string{"stack_category_start", "stack_category_end"},
		},
		chart.Window{
			Ops: []chart.FieldOp{
				{Op: "min", Field: "stack_category_start", As: "x"},
				{Op: "max", Field: "stack_category_end", As: "x2"},
				{Op: "dense_rank", As: "rank_severity"},
				{Op: "distinct", Field: "pressure_level", As: "distinct_severity"},
			},
			GroupBy: []string{"category"},
			Frame:   chart.Unbounded,
			Sort:    []chart.SortField{{Field: "pressure_score", Order: "descending"}},
		},
		chart.Window{
			Ops:   []chart.FieldOp{{Op: "dense_rank", As: "rank_category"}},
			Frame: chart.Unbounded,
			Sort:  []chart.SortField{{Field: "x"}},
		},
		chart.Stack{
			Field:   "tiles",
			GroupBy: []string{"category"},
			Offset:  "normalize",
			Sort:    []chart.SortField{{Field: "pressure_score", Order: "descending"}},
			As:      [2]string{"y", "y2"},
		},
		mosaicOffset("ny", "datum.y + (datum.rank_severity - 1) * datum.distinct_severity * 0.01 / 3",
			func(d chart.Datum) float64 {
				return num(d, "y") + (num(d, "rank_severity")-1)*num(d, "distinct_severity")*mosaicRowGap
			}, "y", "rank_severity", "distinct_severity"),
		mosaicOffset("ny2", "datum.y2 + (datum.rank_severity - 1) * datum.distinct_severity * 0.01 / 3",
			func(d chart.Datum) float64 {
				return num(d, "y2") + (num(d, "rank_severity")-1)*num(d, "distinct_severity")*mosaicRowGap
			}, "y2", "rank_severity", "distinct_severity"),
		mosaicOffset("nx", "datum.x + (datum.rank_category - 1) * 0.01",
			func(d chart.Datum) float64 {
				return num(d, "x") + (num(d, "rank_category")-1)*mosaicColumnGap
			}, "x", "rank_category"),
		mosaicOffset("nx2", "datum.x2 + (datum.rank_category - 1) * 0.01",
			func(d chart.Datum) float64 {
				return num(d, "x2") + (num(d, "rank_category")-1)*mosaicColumnGap
			}, "x2", "rank_category"),
		mosaicOffset("xc", "(datum.nx + datum.nx2) / 2",
			func(d chart.Datum) float64 { return (num(d, "nx") + num(d, "nx2")) / 2 }, "nx", "nx2"),
		mosaicOffset("yc", "(datum.ny + datum.ny2) / 2",
			func(d chart.Datum) float64 { return (num(d, "ny") + num(d, "ny2")) / 2 }, "ny", "ny2"),
	)

	x := chart.Field("nx", chart.Quantitative, "Category")
	x.Axis = chart.NoAxis
	y := chart.Field("ny", chart.Quantitative, "Household types at level")
	y.Axis = chart.NoAxis
	color := chart.Field("pressure_level", chart.Nominal, "Pressure Level")
	color.Scale = &chart.Scale{
		Domain: Severities,
		Range:  []string{"#fee0d2", "#fc9272", "#de2d26", "#a50f15"},
	}

	tiles := chart.Spec{
		Mark: chart.MarkOf("rect"),
		Encoding: &chart.Encoding{
			X:     x,
			X2:    &chart.FieldDef{Field: "nx2"},
			Y:     y,
			Y2:    &chart.FieldDef{Field: "ny2"},
			Color: color,
			Tooltip: []chart.FieldDef{
				chart.Tip("category", chart.Nominal, "Category", ""),
				chart.Tip("pressure_level", chart.Nominal, "Pressure Level", ""),
				chart.Tip("tiles", chart.Quantitative, "Household Types", ""),
			},
		},
	}
	labels := chart.Spec{
		Mark: &chart.Mark{Type: "text", Color: "#ffffff"},
		Encoding: &chart.Encoding{
			X:    &chart.FieldDef{Field: "xc", Type: chart.Quantitative},
			Y:    &chart.FieldDef{Field: "yc", Type: chart.Quantitative},
			Text: &chart.FieldDef{Field: "tiles", Type: chart.Quantitative},
		},
	}
	spec.Layer = []chart.Spec{tiles, labels}
	return spec
}

func mosaicOffset(as, expr string, fn func(chart.Datum) float64, uses ...string) chart.Calculate {
	return chart.Calculate{
		Expr: expr,
		As:   as,
		Uses: uses,
		Fn:   func(d chart.Datum) any { return fn(d) },
	}
}

func num(d chart.Datum, field string) float64 {
	v, _ := engine.Number(d[field])
	return v
}
