package catalog

import (
	"fmt"
	"strings"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// ── Shared transform steps ────────────────────────────────────────────────────
//
// Each constructor pairs the Vega expression with the Go rule it encodes.

// cleanCurrency strips separators from field into cleanAs, then coerces it to
// a number in numericAs. A divisor other than 1 scales the number.
func cleanCurrency(field, cleanAs, numericAs string, divisor float64) []chart.Transform {
	numExpr := fmt.Sprintf("toNumber(datum.%s)", cleanAs)
	if divisor != 1 {
		numExpr = fmt.Sprintf("%s / %s", numExpr, engine.Text(divisor))
	}
	return []chart.Transform{
		chart.Calculate{
			Expr: fmt.Sprintf("replace(datum.%s, regexp('[$,]', 'g'), '')", field),
			As:   cleanAs,
			Uses: []string{field},
			Fn:   func(d chart.Datum) any { return StripSeparators(d[field]) },
		},
		chart.Calculate{
			Expr: numExpr,
			As:   numericAs,
			Uses: []string{cleanAs},
			Fn: func(d chart.Datum) any {
				n := ToNumber(d[cleanAs])
				if f, ok := n.(float64); ok && divisor != 1 {
					return f / divisor
				}
				return n
			},
		},
	}
}

// excludeNational drops the AUSTRALIA aggregate row from state charts.
func excludeNational() chart.Filter {
	return chart.Filter{
		Expr: "datum.state != 'AUSTRALIA'",
		Uses: []string{"state"},
		Test: func(d chart.Datum, _ chart.Params) bool { return engine.Text(d["state"]) != "AUSTRALIA" },
	}
}

// fieldEquals keeps rows whose field equals value.
func fieldEquals(field, value string) chart.Filter {
	return chart.Filter{
		Expr: fmt.Sprintf("datum.%s == '%s'", field, value),
		Uses: []string{field},
		Test: func(d chart.Datum, _ chart.Params) bool { return engine.Text(d[field]) == value },
	}
}

// householdFold folds the three household columns sharing suffix (index or
// pressure) into (household_type, valueAs) and labels them.
func householdFold(suffix, valueAs string) []chart.Transform {
	cols := []string{"employee_" + suffix, "pensioner_" + suffix, "self_funded_" + suffix}
	return []chart.Transform{
		chart.Fold{Fields: cols, As: [2]string{"household_type", valueAs}},
		chart.Calculate{
			Expr: fmt.Sprintf(
				"datum.household_type == '%s' ? 'Employee' : datum.household_type == '%s' ? 'Pensioner' : 'Self-Funded'",
				cols[0], cols[1]),
			As:   "household_type_label",
			Uses: []string{"household_type"},
			Fn:   func(d chart.Datum) any { return HouseholdLabel(engine.Text(d["household_type"])) },
		},
	}
}

// pressureScore maps pressure_level to its 1..4 severity score.
func pressureScore() chart.Calculate {
	return chart.Calculate{
		Expr: "datum.pressure_level == 'Very High' ? 4 : datum.pressure_level == 'High' ? 3 : datum.pressure_level == 'Medium' ? 2 : 1",
		As:   "pressure_score",
		Uses: []string{"pressure_level"},
		Fn:   func(d chart.Datum) any { return PressureScore(engine.Text(d["pressure_level"])) },
	}
}

// orChecked builds "(p_A && datum.f == 'A') || ..." over a checkbox group.
func orChecked(prefix, field string, options []string) chart.Filter {
	terms := make([]string, len(options))
	for i, o := range options {
		terms[i] = fmt.Sprintf("(%s && datum.%s == '%s')", chart.CheckboxName(prefix, o), field, o)
	}
	return chart.Filter{
		Expr: strings.Join(terms, " || "),
		Uses: []string{field},
		Test: func(d chart.Datum, p chart.Params) bool {
			return engine.Truthy(p[chart.CheckboxName(prefix, engine.Text(d[field]))])
		},
	}
}

// withinRange keeps rows whose numeric field lies in [minParam, maxParam].
// Rows with no numeric value are dropped.
func withinRange(field, minParam, maxParam string) chart.Filter {
	return chart.Filter{
		Expr: fmt.Sprintf("datum.%[1]s >= %[2]s && datum.%[1]s <= %[3]s", field, minParam, maxParam),
		Uses: []string{field},
		Test: func(d chart.Datum, p chart.Params) bool {
			v, ok := engine.Number(d[field])
			if !ok {
				return false
			}
			lo, lok := engine.Number(p[minParam])
			hi, hok := engine.Number(p[maxParam])
			return (!lok || v >= lo) && (!hok || v <= hi)
		},
	}
}
