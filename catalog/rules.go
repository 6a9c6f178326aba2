package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/livingcost/engine"
)

// ============================================================================
// RULES — Per-row business rules shared by the reports
// ============================================================================
// Each rule exists twice: as a Vega expression string handed to the renderer
// and as a Go function the local engine evaluates. The two must agree.
// ============================================================================

// DefaultWeeklyWage is the average total weekly wage (AUD) that category
// shares are converted against.
const DefaultWeeklyWage = 2010.0

// StripSeparators removes thousands separators and a currency sign from
// currency-like text: "$1,800.50" → "1800.50".
func StripSeparators(v any) string {
	s := strings.TrimSpace(engine.Text(v))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	return s
}

// ToNumber mirrors Vega's toNumber: empty and missing values are nil,
// unparseable text is NaN.
func ToNumber(v any) any {
	if !engine.Valid(v) {
		return nil
	}
	if f, ok := engine.Number(v); ok {
		return f
	}
	return math.NaN()
}

// ShareToWeekly converts a percentage of total spending into weekly dollars.
func ShareToWeekly(percentage, weeklyWage float64) float64 {
	return percentage / 100 * weeklyWage
}

// ShortCategory shortens the one long category label; all others pass through.
func ShortCategory(category string) string {
	if category == "Current housing costs" {
		return "Housing"
	}
	return category
}

// HouseholdLabel names a folded household-type column for display.
func HouseholdLabel(column string) string {
	switch column {
	case "employee_index", "employee_pressure":
		return "Employee"
	case "pensioner_index", "pensioner_pressure":
		return "Pensioner"
	}
	return "Self-Funded"
}

// Severity levels from lowest to highest.
var Severities = []string{"Low", "Medium", "High", "Very High"}

// PressureScore maps a severity label to 1..4. Unrecognised labels score 1.
func PressureScore(level string) float64 {
	switch level {
	case "Very High":
		return 4
	case "High":
		return 3
	case "Medium":
		return 2
	}
	return 1
}

// QuarterStart parses "2023-Q3" (or "2023-3") into the first day of that
// quarter.
func QuarterStart(yearQuarter string) (time.Time, bool) {
	s := strings.TrimSpace(yearQuarter)
	s = strings.Replace(s, "-Q", "-", 1)
	year, q, ok := strings.Cut(s, "-")
	if !ok {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(q)
	if err != nil || n < 1 || n > 4 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month((n-1)*3+1), 1, 0, 0, 0, 0, time.UTC), true
}

// MonthStart parses "2023-06" into the first day of that month.
func MonthStart(yearMonth string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(yearMonth)+"-01")
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Period buckets offered by the inflation chart's selector.
const (
	PeriodAll       = "all"
	PeriodSince2015 = "since_2015"
	PeriodSince2020 = "since_2020"
)

// InPeriod reports whether t falls inside the selected period bucket.
// Unknown buckets match nothing.
func InPeriod(t time.Time, bucket string) bool {
	switch bucket {
	case PeriodAll:
		return true
	case PeriodSince2015:
		return t.Year() >= 2015
	case PeriodSince2020:
		return t.Year() >= 2020
	}
	return false
}
