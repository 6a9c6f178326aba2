package catalog

import (
	"github.com/spektr-org/livingcost/chart"
)

// States lists the states and territories in page order.
var States = []string{"NSW", "VIC", "QLD", "SA", "WA", "TAS", "NT", "ACT"}

// Genders lists the gender series of the earnings source.
var Genders = []string{"person", "male", "female"}

// Earnings slider bounds (AUD per week).
const (
	EarningsFloor   = 0.0
	EarningsCeiling = 3000.0
)

// Param names on the earnings chart.
const (
	ParamGender      = "gender_select"
	ParamStatePrefix = "state"
	ParamEarningsMin = "earnings_min"
	ParamEarningsMax = "earnings_max"
)

func earningsByGender(o *options) chart.Spec {
	spec := baseSpec("Weekly Earnings by State and Gender", 400, chart.TSV(o.url("earnings_data.csv")))

	spec.Params = append(spec.Params,
		chart.SelectParam(ParamGender, "gender", "Gender: ", Genders,
			[]string{"All Persons", "Males", "Females"}))
	spec.Params = append(spec.Params, chart.CheckboxGroup(ParamStatePrefix, States)...)
	spec.Params = append(spec.Params,
		chart.RangeParam(ParamEarningsMin, "Min weekly earnings ($): ", EarningsFloor, EarningsFloor, EarningsCeiling, 50),
		chart.RangeParam(ParamEarningsMax, "Max weekly earnings ($): ", EarningsCeiling, EarningsFloor, EarningsCeiling, 50),
	)

	spec.Transform = cleanCurrency("weekly_earnings", "weekly_earnings_clean", "weekly_earnings_numeric", 1)
	spec.Transform = append(spec.Transform,
		excludeNational(),
		chart.Filter{Param: ParamGender},
		orChecked(ParamStatePrefix, "state", States),
		withinRange("weekly_earnings_numeric", ParamEarningsMin, ParamEarningsMax),
	)

	spec.Mark = chart.MarkOf("bar")
	x := chart.Field("state", chart.Nominal, "State/Territory")
	x.Axis = chart.Angle(0)
	x.Sort = "-y"
	color := chart.Field("gender", chart.Nominal, "Gender")
	color.Scale = &chart.Scale{
		Domain: Genders,
		Range:  []string{"#3498db", "#2ecc71", "#e74c3c"},
	}
	spec.Encoding = &chart.Encoding{
		X:       x,
		Y:       chart.Field("weekly_earnings_numeric", chart.Quantitative, "Weekly Earnings ($)"),
		Color:   color,
		XOffset: chart.Field("gender", chart.Nominal, ""),
		Tooltip: []chart.FieldDef{
			chart.Tip("state", chart.Nominal, "State", ""),
			chart.Tip("gender", chart.Nominal, "Gender", ""),
			chart.Tip("weekly_earnings_numeric", chart.Quantitative, "Weekly Earnings", "$.2f"),
		},
	}
	spec.Config = fontConfig()
	return spec
}

func earningsVsSpending(o *options) chart.Spec {
	spec := baseSpec("Weekly Earnings vs Essential Spending by State", 400, chart.TSV(o.url("earnings_data.csv")))
	spec.Transform = append([]chart.Transform{
		fieldEquals("gender", "person"),
		excludeNational(),
	}, cleanCurrency("weekly_earnings", "weekly_earnings_clean", "weekly_earnings_numeric", 1)...)

	barX := chart.Field("state", chart.Nominal, "State/Territory")
	barX.Sort = "-y"
	barY := chart.Field("weekly_earnings_numeric", chart.Quantitative, "Weekly Amount ($)")
	barY.Scale = &chart.Scale{Domain: []float64{1700, 2300}}
	bars := chart.Spec{
		Mark: chart.MarkOf("bar"),
		Encoding: &chart.Encoding{
			X:     barX,
			Y:     barY,
			Color: &chart.FieldDef{Value: "#3498db"},
			Tooltip: []chart.FieldDef{
				chart.Tip("state", chart.Nominal, "State", ""),
				chart.Tip("weekly_earnings_numeric", chart.Quantitative, "Weekly Earnings", "$.2f"),
			},
		},
	}

	// State spending is quarterly; the point layer shows it per week.
	points := chart.Spec{
		Data:      chart.CSV(o.url("state_total_spending.csv")),
		Transform: append([]chart.Transform{excludeNational()}, cleanCurrency("spending_2023_adj", "spending_clean", "weekly_spending", 4)...),
		Mark:      &chart.Mark{Type: "point", Filled: true, Size: 100, Color: "#e74c3c"},
		Encoding: &chart.Encoding{
			X: chart.Field("state", chart.Nominal, ""),
			Y: chart.Field("weekly_spending", chart.Quantitative, "Weekly Amount ($)"),
			Tooltip: []chart.FieldDef{
				chart.Tip("state", chart.Nominal, "State", ""),
				chart.Tip("weekly_spending", chart.Quantitative, "Weekly Spending", "$.2f"),
			},
		},
	}

	spec.Layer = []chart.Spec{bars, points}
	return spec
}
