package catalog

import (
	"path"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// LIVINGCOST CATALOG — The page's reports as chart specs
// ============================================================================
// Entry point: All(opts...) → []Entry
//
// Every call builds fresh Spec values. Nothing here loads data or validates
// field references; malformed sources surface in the renderer or in lint.
// ============================================================================

// Target element ids on the page.
const (
	TargetEarningsByGender    = "earnings_by_gender"
	TargetWageAllocation      = "weekly_wage_allocation"
	TargetCostOfLivingMap     = "cost_of_living_map"
	TargetInflationTrends     = "inflation_trends"
	TargetEarningsVsSpending  = "earnings_spending_comparison"
	TargetLivingCostIndexes   = "living_cost_indexes"
	TargetSpendingComposition = "spending_composition"
	TargetCostPressures       = "cost_pressures"
	TargetPressureMosaic      = "cost_pressures_mosaic"
	TargetCategoryInflation   = "category_inflation"
)

// Entry pairs a chart with the page element it renders into.
type Entry struct {
	Target string
	Spec   chart.Spec
}

// Option configures the catalog via functional options pattern.
type Option func(*options)

type options struct {
	WeeklyWage float64
	DataDir    string
	Targets    map[string]string
}

// WithWeeklyWage sets the total weekly wage category shares convert against.
// Non-positive values are ignored.
func WithWeeklyWage(wage float64) Option {
	return func(o *options) {
		if wage > 0 {
			o.WeeklyWage = wage
		}
	}
}

// WithDataDir sets the URL prefix data sources are referenced under.
func WithDataDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.DataDir = dir
		}
	}
}

// WithTargets renames target element ids (default id → page id).
func WithTargets(targets map[string]string) Option {
	return func(o *options) {
		for from, to := range targets {
			if to != "" {
				o.Targets[from] = to
			}
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		WeeklyWage: DefaultWeeklyWage,
		DataDir:    "data",
		Targets:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) url(file string) string {
	return path.Join(o.DataDir, file)
}

func (o *options) target(id string) string {
	if t, ok := o.Targets[id]; ok {
		return t
	}
	return id
}

// All returns every report in page order. Each target appears exactly once.
func All(opts ...Option) []Entry {
	o := applyOptions(opts)
	builders := []struct {
		id    string
		build func(*options) chart.Spec
	}{
		{TargetEarningsByGender, earningsByGender},
		{TargetWageAllocation, wageAllocation},
		{TargetCostOfLivingMap, costOfLivingMap},
		{TargetInflationTrends, inflationTrends},
		{TargetEarningsVsSpending, earningsVsSpending},
		{TargetLivingCostIndexes, livingCostIndexes},
		{TargetSpendingComposition, spendingComposition},
		{TargetCostPressures, costPressures},
		{TargetPressureMosaic, pressureMosaic},
		{TargetCategoryInflation, categoryInflation},
	}

	out := make([]Entry, 0, len(builders))
	for _, b := range builders {
		out = append(out, Entry{Target: o.target(b.id), Spec: b.build(o)})
	}
	return out
}

// Lookup returns the entry rendered into target.
func Lookup(target string, opts ...Option) (Entry, bool) {
	for _, e := range All(opts...) {
		if e.Target == target {
			return e, true
		}
	}
	return Entry{}, false
}

// Targets lists the target ids in page order.
func Targets(opts ...Option) []string {
	entries := All(opts...)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Target
	}
	return out
}

// ── shared styling ────────────────────────────────────────────────────────────

func baseSpec(title string, height int, data *chart.Data) chart.Spec {
	return chart.Spec{
		Schema: chart.SchemaURL,
		Title:  title,
		Width:  "container",
		Height: height,
		Data:   data,
	}
}

func fontConfig() *chart.Config {
	fonts := &chart.FontConfig{LabelFontSize: 12, TitleFontSize: 14}
	return &chart.Config{Axis: fonts, Legend: fonts, View: &chart.ViewConfig{NoStroke: true}}
}
