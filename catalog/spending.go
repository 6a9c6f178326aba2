package catalog

import (
	"fmt"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// compositionYears maps each survey column to the year it is plotted at.
var compositionYears = []struct {
	column string
	year   float64
}{
	{"percentage_1984", 1984},
	{"percentage_2009", 2009},
	{"percentage_2015", 2015},
	{"percentage_2023_est", 2023},
}

func wageAllocation(o *options) chart.Spec {
	wage := o.WeeklyWage
	spec := baseSpec("How the Average Weekly Wage is Allocated", 400, chart.CSV(o.url("spending_categories_national.csv")))
	spec.Transform = []chart.Transform{
		chart.Filter{
			Expr: "datum.percentage_2023_est > 0",
			Uses: []string{"percentage_2023_est"},
			Test: func(d chart.Datum, _ chart.Params) bool {
				v, ok := engine.Number(d["percentage_2023_est"])
				return ok && v > 0
			},
		},
		chart.Calculate{
			Expr: fmt.Sprintf("datum.percentage_2023_est / 100 * %s", engine.Text(wage)),
			As:   "weekly_amount",
			Uses: []string{"percentage_2023_est"},
			Fn: func(d chart.Datum) any {
				v, ok := engine.Number(d["percentage_2023_est"])
				if !ok {
					return nil
				}
				return ShareToWeekly(v, wage)
			},
		},
		chart.Calculate{
			Expr: "datum.category == 'Current housing costs' ? 'Housing' : datum.category",
			As:   "short_category",
			Uses: []string{"category"},
			Fn:   func(d chart.Datum) any { return ShortCategory(engine.Text(d["category"])) },
		},
	}

	spec.Mark = &chart.Mark{Type: "arc", InnerRadius: 50, Tooltip: true}
	color := chart.Field("short_category", chart.Nominal, "Spending Category")
	color.Scale = &chart.Scale{Scheme: "category20"}
	color.Legend = &chart.Legend{Orient: "right", Title: "Spending Categories"}
	spec.Encoding = &chart.Encoding{
		Theta: chart.Field("weekly_amount", chart.Quantitative, "Weekly Amount ($)"),
		Color: color,
		Tooltip: []chart.FieldDef{
			chart.Tip("short_category", chart.Nominal, "Category", ""),
			chart.Tip("weekly_amount", chart.Quantitative, "Weekly Amount", "$.2f"),
			chart.Tip("percentage_2023_est", chart.Quantitative, "Percentage (%)", ".1f"),
		},
	}
	spec.View = &chart.ViewConfig{NoStroke: true}
	return spec
}

func spendingComposition(o *options) chart.Spec {
	spec := baseSpec("Household Spending Composition Over Time", 400, chart.CSV(o.url("spending_categories_national.csv")))

	cols := make([]string, len(compositionYears))
	years := make(map[string]float64, len(compositionYears))
	expr := ""
	for i, cy := range compositionYears {
		cols[i] = cy.column
		years[cy.column] = cy.year
		if i < len(compositionYears)-1 {
			expr += fmt.Sprintf("datum.year == '%s' ? %s : ", cy.column, engine.Text(cy.year))
		} else {
			expr += engine.Text(cy.year)
		}
	}
	last := compositionYears[len(compositionYears)-1].year

	spec.Transform = []chart.Transform{
		chart.Fold{Fields: cols, As: [2]string{"year", "percentage"}},
		chart.Calculate{
			Expr: expr,
			As:   "year_value",
			Uses: []string{"year"},
			Fn: func(d chart.Datum) any {
				if y, ok := years[engine.Text(d["year"])]; ok {
					return y
				}
				return last
			},
		},
	}

	spec.Mark = chart.MarkOf("area")
	x := chart.Field("year_value", chart.Quantitative, "Year")
	x.Axis = &chart.Axis{TickCount: 4}
	y := chart.Field("percentage", chart.Quantitative, "Percentage of Spending")
	y.Stack = "normalize"
	color := chart.Field("category", chart.Nominal, "Spending Category")
	color.Scale = &chart.Scale{Scheme: "category20"}
	spec.Encoding = &chart.Encoding{
		X:     x,
		Y:     y,
		Color: color,
		Tooltip: []chart.FieldDef{
			chart.Tip("category", chart.Nominal, "Category", ""),
			chart.Tip("year_value", chart.Quantitative, "Year", ""),
			chart.Tip("percentage", chart.Quantitative, "Percentage (%)", ".1f"),
		},
	}
	return spec
}

func categoryInflation(o *options) chart.Spec {
	spec := baseSpec("Current Inflation by Spending Category", 400, chart.CSV(o.url("category_inflation.csv")))
	spec.Transform = []chart.Transform{
		chart.Calculate{
			Expr: "datum.annual_change / 100",
			As:   "annual_change_percent",
			Uses: []string{"annual_change"},
			Fn: func(d chart.Datum) any {
				v, ok := engine.Number(d["annual_change"])
				if !ok {
					return nil
				}
				return v / 100
			},
		},
	}

	spec.Mark = chart.MarkOf("bar")
	x := chart.Field("annual_change_percent", chart.Quantitative, "Annual Change (%)")
	x.Axis = &chart.Axis{Format: ".1%"}
	y := chart.Field("category", chart.Nominal, "Spending Category")
	y.Sort = "-x"
	color := chart.Field("annual_change_percent", chart.Quantitative, "")
	color.Scale = &chart.Scale{Scheme: "redblue", DomainMid: chart.Float(0)}
	color.Legend = &chart.Legend{Title: "Annual Change"}
	spec.Encoding = &chart.Encoding{
		X:     x,
		Y:     y,
		Color: color,
		Tooltip: []chart.FieldDef{
			chart.Tip("category", chart.Nominal, "Category", ""),
			chart.Tip("annual_change_percent", chart.Quantitative, "Annual Change", ".1%"),
			chart.Tip("quarterly_change", chart.Quantitative, "Quarterly Change (%)", ".1f"),
			chart.Tip("weight", chart.Quantitative, "Weight in CPI", ".1f"),
		},
	}
	return spec
}
