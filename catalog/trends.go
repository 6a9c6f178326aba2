package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// ParamPeriod selects the time-period bucket on the inflation chart.
const ParamPeriod = "period_select"

func costOfLivingMap(o *options) chart.Spec {
	spec := baseSpec("Cost of Living Index by Capital City", 500, chart.CSV(o.url("city_cpi_comparison_with_coords.csv")))
	spec.Transform = []chart.Transform{
		chart.Calculate{
			Expr: "datum.city == 'National_Average' ? 0 : 1",
			As:   "is_national",
			Uses: []string{"city"},
			Fn: func(d chart.Datum) any {
				if engine.Text(d["city"]) == "National_Average" {
					return 0.0
				}
				return 1.0
			},
		},
	}

	spec.Mark = &chart.Mark{Type: "circle", Tooltip: map[string]string{"content": "data"}}
	lon := chart.Field("longitude", chart.Quantitative, "")
	lon.Scale = &chart.Scale{Domain: []float64{110, 155}}
	lat := chart.Field("latitude", chart.Quantitative, "")
	lat.Scale = &chart.Scale{Domain: []float64{-45, -10}}
	size := chart.Field("population_weight", chart.Quantitative, "Population Weight")
	size.Scale = &chart.Scale{Range: []float64{50, 300}}
	color := chart.Field("cpi_index", chart.Quantitative, "CPI Index")
	color.Scale = &chart.Scale{Scheme: "reds"}
	spec.Encoding = &chart.Encoding{
		Longitude: lon,
		Latitude:  lat,
		Size:      size,
		Color:     color,
		Tooltip: []chart.FieldDef{
			chart.Tip("city", chart.Nominal, "City", ""),
			chart.Tip("cpi_index", chart.Quantitative, "CPI Index", ".1f"),
			chart.Tip("annual_change", chart.Quantitative, "Annual Change (%)", ".1f"),
			chart.Tip("population_weight", chart.Quantitative, "Population Weight", ".0f"),
		},
	}
	spec.Config = &chart.Config{View: &chart.ViewConfig{NoStroke: true}}
	return spec
}

func inflationTrends(o *options) chart.Spec {
	spec := baseSpec("Inflation Trends Over Time", 400, chart.TSV(o.url("inflation_data.csv")))
	spec.Params = []chart.Param{
		chart.RadioParam(ParamPeriod, "Period: ", PeriodAll,
			[]string{PeriodAll, PeriodSince2015, PeriodSince2020},
			[]string{"All quarters", "Since 2015", "Since 2020"}),
	}
	spec.Transform = []chart.Transform{
		chart.Calculate{
			Expr: "replace(datum.year_quarter, '-Q', '-')",
			As:   "quarter_clean",
			Uses: []string{"year_quarter"},
			Fn:   func(d chart.Datum) any { return quarterClean(engine.Text(d["year_quarter"])) },
		},
		chart.Calculate{
			// Vega months are zero-based.
			Expr: "datetime(toNumber(substring(datum.quarter_clean, 0, 4)), (toNumber(substring(datum.quarter_clean, 5)) - 1) * 3, 1)",
			As:   "date",
			Uses: []string{"quarter_clean"},
			Fn: func(d chart.Datum) any {
				t, ok := QuarterStart(engine.Text(d["quarter_clean"]))
				if !ok {
					return nil
				}
				return t
			},
		},
		chart.Filter{
			Expr: fmt.Sprintf("%[1]s == '%[2]s' || (%[1]s == '%[3]s' && year(datum.date) >= 2015) || (%[1]s == '%[4]s' && year(datum.date) >= 2020)",
				ParamPeriod, PeriodAll, PeriodSince2015, PeriodSince2020),
			Uses: []string{"date"},
			Test: func(d chart.Datum, p chart.Params) bool {
				bucket := engine.Text(p[ParamPeriod])
				if bucket == PeriodAll {
					return true
				}
				t, ok := d["date"].(time.Time)
				return ok && InPeriod(t, bucket)
			},
		},
	}

	cpiX := chart.Field("date", chart.Temporal, "Year Quarter")
	cpiX.Axis = chart.Angle(-45)
	cpiY := chart.Field("all_groups_cpi", chart.Quantitative, "Inflation Rate (%)")
	cpiY.Scale = &chart.Scale{Domain: []float64{-2, 10}}
	cpi := chart.Spec{
		Mark: &chart.Mark{Type: "line", Stroke: "#e74c3c", StrokeWidth: 3, Point: true},
		Encoding: &chart.Encoding{
			X: cpiX,
			Y: cpiY,
			Tooltip: []chart.FieldDef{
				chart.Tip("year_quarter", chart.Nominal, "Quarter", ""),
				chart.Tip("all_groups_cpi", chart.Quantitative, "CPI Inflation", ".1f"),
				chart.Tip("trimmed_mean", chart.Quantitative, "Trimmed Mean", ".1f"),
			},
		},
	}
	trimmed := chart.Spec{
		Mark: &chart.Mark{Type: "line", Stroke: "#3498db", StrokeWidth: 2, StrokeDash: []float64{5, 5}, Point: true},
		Encoding: &chart.Encoding{
			X: chart.Field("date", chart.Temporal, "Year Quarter"),
			Y: chart.Field("trimmed_mean", chart.Quantitative, "Inflation Rate (%)"),
			Tooltip: []chart.FieldDef{
				chart.Tip("year_quarter", chart.Nominal, "Quarter", ""),
				chart.Tip("trimmed_mean", chart.Quantitative, "Trimmed Mean", ".1f"),
			},
		},
	}
	spec.Layer = []chart.Spec{cpi, trimmed}
	return spec
}

// quarterClean rewrites "2023-Q3" as "2023-3".
func quarterClean(s string) string {
	return strings.Replace(s, "-Q", "-", 1)
}

func livingCostIndexes(o *options) chart.Spec {
	spec := baseSpec("Living Cost Indexes by Household Type", 400, chart.CSV(o.url("living_cost_indexes.csv")))
	spec.Transform = append(householdFold("index", "index_value"),
		chart.Calculate{
			Expr: "datum.year_quarter + '-01'",
			As:   "parsed_date",
			Uses: []string{"year_quarter"},
			Fn: func(d chart.Datum) any {
				t, ok := MonthStart(engine.Text(d["year_quarter"]))
				if !ok {
					return nil
				}
				return t
			},
		})

	spec.Mark = chart.MarkOf("line")
	x := chart.Field("parsed_date", chart.Temporal, "Year Quarter")
	x.Axis = chart.Angle(-45)
	color := chart.Field("household_type_label", chart.Nominal, "Household Type")
	color.Scale = &chart.Scale{Scheme: "set2"}
	spec.Encoding = &chart.Encoding{
		X:     x,
		Y:     chart.Field("index_value", chart.Quantitative, "Living Cost Index"),
		Color: color,
		Tooltip: []chart.FieldDef{
			chart.Tip("year_quarter", chart.Nominal, "Quarter", ""),
			chart.Tip("household_type_label", chart.Nominal, "Household Type", ""),
			chart.Tip("index_value", chart.Quantitative, "Index Value", ".1f"),
		},
	}
	return spec
}
