package catalog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// ============================================================================
// CATALOG TESTS
// ============================================================================

func lookup(t *testing.T, target string, opts ...Option) chart.Spec {
	t.Helper()
	e, ok := Lookup(target, opts...)
	require.True(t, ok, "missing target %s", target)
	return e.Spec
}

func TestAllTargetsUniqueAndOrdered(t *testing.T) {
	want := []string{
		"earnings_by_gender",
		"weekly_wage_allocation",
		"cost_of_living_map",
		"inflation_trends",
		"earnings_spending_comparison",
		"living_cost_indexes",
		"spending_composition",
		"cost_pressures",
		"cost_pressures_mosaic",
		"category_inflation",
	}
	if diff := cmp.Diff(want, Targets()); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestAllSpecsMarshal(t *testing.T) {
	for _, e := range All() {
		b, err := json.Marshal(e.Spec)
		require.NoError(t, err, e.Target)

		var back map[string]any
		require.NoError(t, json.Unmarshal(b, &back), e.Target)
		assert.Equal(t, chart.SchemaURL, back["$schema"], e.Target)
		assert.Equal(t, "container", back["width"], e.Target)
		assert.NotEmpty(t, back["title"], e.Target)
		assert.NotNil(t, back["data"], e.Target)
	}
}

func TestBuildersReturnFreshValues(t *testing.T) {
	a := lookup(t, TargetEarningsByGender)
	a.Transform[0] = nil
	a.Params[0].Name = "mutated"

	b := lookup(t, TargetEarningsByGender)
	assert.NotNil(t, b.Transform[0])
	assert.Equal(t, ParamGender, b.Params[0].Name)
}

func TestWithOptions(t *testing.T) {
	spec := lookup(t, TargetWageAllocation, WithWeeklyWage(2500), WithDataDir("static/data"))
	calc, ok := spec.Transform[1].(chart.Calculate)
	require.True(t, ok)
	assert.Equal(t, "datum.percentage_2023_est / 100 * 2500", calc.Expr)
	assert.Equal(t, "static/data/spending_categories_national.csv", spec.Data.URL)

	renamed := Targets(WithTargets(map[string]string{TargetCostPressures: "heatmap"}))
	assert.Contains(t, renamed, "heatmap")
	assert.NotContains(t, renamed, TargetCostPressures)

	spec = lookup(t, TargetWageAllocation, WithWeeklyWage(-1))
	calc = spec.Transform[1].(chart.Calculate)
	assert.True(t, strings.HasSuffix(calc.Expr, "* 2010"), "non-positive wage keeps the default")
}

func TestEarningsSpecJSON(t *testing.T) {
	b, err := json.Marshal(lookup(t, TargetEarningsByGender))
	require.NoError(t, err)
	s := string(b)

	assert.Contains(t, s, `{"filter":{"empty":false,"param":"gender_select"}}`)
	assert.Contains(t, s, `{"filter":"datum.state != 'AUSTRALIA'"}`)
	assert.Contains(t, s, `"format":{"type":"dsv","delimiter":"\t"}`)
	assert.Contains(t, s, `"view":{"stroke":null}`)
	assert.Contains(t, s, `"xOffset":{"field":"gender","type":"nominal"}`)
}

func TestHeatmapLegendIsNull(t *testing.T) {
	b, err := json.Marshal(lookup(t, TargetCostPressures))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"legend":null`)
}

// ── Evaluated reports ─────────────────────────────────────────────────────────

func earningsRows() []chart.Datum {
	return []chart.Datum{
		{"state": "NSW", "gender": "person", "weekly_earnings": "$1,800.50"},
		{"state": "VIC", "gender": "person", "weekly_earnings": "2,100"},
	}
}

func TestEarningsEndToEnd(t *testing.T) {
	spec := lookup(t, TargetEarningsByGender)
	rows, err := engine.Execute(spec, earningsRows())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1800.50, rows[0]["weekly_earnings_numeric"])
	assert.Equal(t, 2100.0, rows[1]["weekly_earnings_numeric"])
}

func TestEarningsDropsNationalRow(t *testing.T) {
	in := append(earningsRows(), chart.Datum{"state": "AUSTRALIA", "gender": "person", "weekly_earnings": "1,950"})
	rows, err := engine.Execute(lookup(t, TargetEarningsByGender), in)
	require.NoError(t, err)
	for _, r := range rows {
		assert.NotEqual(t, "AUSTRALIA", r["state"])
	}
}

func mixedEarnings() []chart.Datum {
	var rows []chart.Datum
	earnings := []string{"1,200", "1,650.25", "1,900", "2,050", "2,400", "2,950"}
	for i, s := range States {
		for j, g := range Genders {
			rows = append(rows, chart.Datum{
				"state":           s,
				"gender":          g,
				"weekly_earnings": earnings[(i+j)%len(earnings)],
			})
		}
	}
	return rows
}

func countWith(t *testing.T, spec chart.Spec, rows []chart.Datum, p chart.Params) int {
	t.Helper()
	out, err := engine.Execute(spec, rows, engine.WithParams(p))
	require.NoError(t, err)
	return len(out)
}

func TestParamGatesCombineWithAnd(t *testing.T) {
	spec := lookup(t, TargetEarningsByGender)
	rows := mixedEarnings()

	all := countWith(t, spec, rows, nil)
	assert.Equal(t, len(rows), all)

	onlyMale := countWith(t, spec, rows, chart.Params{ParamGender: []any{map[string]any{"gender": "male"}}})
	assert.Equal(t, len(States), onlyMale)

	noNSW := chart.Params{chart.CheckboxName(ParamStatePrefix, "NSW"): false}
	assert.Equal(t, len(rows)-len(Genders), countWith(t, spec, rows, noNSW))

	both := chart.Params{
		ParamGender: []any{map[string]any{"gender": "male"}},
		chart.CheckboxName(ParamStatePrefix, "NSW"): false,
	}
	assert.Equal(t, len(States)-1, countWith(t, spec, rows, both))
}

func TestStateCheckboxAcceptsNumericFlags(t *testing.T) {
	spec := lookup(t, TargetEarningsByGender)
	rows := mixedEarnings()
	nsw := chart.CheckboxName(ParamStatePrefix, "NSW")

	assert.Equal(t, len(rows), countWith(t, spec, rows, chart.Params{nsw: 1.0}))
	assert.Equal(t, len(rows)-len(Genders), countWith(t, spec, rows, chart.Params{nsw: 0.0}))
	assert.Equal(t, len(rows)-len(Genders), countWith(t, spec, rows, chart.Params{nsw: nil}))
}

func TestParamGatingMonotonic(t *testing.T) {
	spec := lookup(t, TargetEarningsByGender)
	rows := mixedEarnings()

	// Widening the earnings range never drops rows.
	prev := -1
	for _, hi := range []float64{1000, 1500, 2000, 2500, 3000} {
		n := countWith(t, spec, rows, chart.Params{ParamEarningsMax: hi})
		assert.GreaterOrEqual(t, n, prev, "max=%v", hi)
		prev = n
	}
	prev = -1
	for _, lo := range []float64{2500, 2000, 1500, 1000, 0} {
		n := countWith(t, spec, rows, chart.Params{ParamEarningsMin: lo})
		assert.GreaterOrEqual(t, n, prev, "min=%v", lo)
		prev = n
	}

	// Checking more states never drops rows.
	params := chart.Params{}
	for _, s := range States {
		params[chart.CheckboxName(ParamStatePrefix, s)] = false
	}
	prev = countWith(t, spec, rows, params)
	assert.Zero(t, prev)
	for _, s := range States {
		params[chart.CheckboxName(ParamStatePrefix, s)] = true
		n := countWith(t, spec, rows, params)
		assert.GreaterOrEqual(t, n, prev, "after checking %s", s)
		prev = n
	}

	// Selecting more genders never drops rows, starting from none selected.
	selected := []any{}
	prev = countWith(t, spec, rows, chart.Params{ParamGender: selected})
	assert.Zero(t, prev)
	for _, g := range Genders {
		selected = append(selected, map[string]any{"gender": g})
		n := countWith(t, spec, rows, chart.Params{ParamGender: selected})
		assert.GreaterOrEqual(t, n, prev, "after selecting %s", g)
		prev = n
	}
}

func TestWageAllocation(t *testing.T) {
	rows := []chart.Datum{
		{"category": "Current housing costs", "percentage_2023_est": "24.5"},
		{"category": "Food", "percentage_2023_est": "16"},
		{"category": "Discontinued", "percentage_2023_est": "0"},
		{"category": "All", "percentage_2023_est": "100"},
	}
	out, err := engine.Execute(lookup(t, TargetWageAllocation), rows)
	require.NoError(t, err)
	require.Len(t, out, 3, "zero shares are filtered")

	assert.Equal(t, "Housing", out[0]["short_category"])
	assert.InDelta(t, 492.45, out[0]["weekly_amount"], 1e-9)
	assert.Equal(t, "Food", out[1]["short_category"])
	assert.InDelta(t, 2010.0, out[2]["weekly_amount"], 1e-9)
}

func TestLivingCostIndexesFold(t *testing.T) {
	rows := []chart.Datum{
		{"year_quarter": "2023-06", "employee_index": "101.2", "pensioner_index": "99.8", "self_funded_index": "100.4"},
		{"year_quarter": "2023-09", "employee_index": "102.0", "pensioner_index": "100.1", "self_funded_index": "100.9"},
	}
	out, err := engine.Execute(lookup(t, TargetLivingCostIndexes), rows)
	require.NoError(t, err)
	require.Len(t, out, len(rows)*3)

	labels := map[string]string{
		"employee_index":    "Employee",
		"pensioner_index":   "Pensioner",
		"self_funded_index": "Self-Funded",
	}
	for i, r := range out {
		src := rows[i/3]
		col := r["household_type"].(string)
		assert.Equal(t, src[col], r["index_value"], "value traces to its column")
		assert.Equal(t, labels[col], r["household_type_label"])
	}
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), out[0]["parsed_date"])
}

func TestInflationPeriodSelector(t *testing.T) {
	spec := lookup(t, TargetInflationTrends)
	rows := []chart.Datum{
		{"year_quarter": "2014-Q4", "all_groups_cpi": "1.7", "trimmed_mean": "2.2"},
		{"year_quarter": "2016-Q1", "all_groups_cpi": "1.3", "trimmed_mean": "1.6"},
		{"year_quarter": "2022-Q4", "all_groups_cpi": "7.8", "trimmed_mean": "6.9"},
	}

	out, err := engine.ExecuteLayer(spec, 0, rows)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, time.Date(2014, 10, 1, 0, 0, 0, 0, time.UTC), out[0]["date"])

	assert.Equal(t, 2, countWith(t, spec, rows, chart.Params{ParamPeriod: PeriodSince2015}))
	assert.Equal(t, 1, countWith(t, spec, rows, chart.Params{ParamPeriod: PeriodSince2020}))
	assert.Equal(t, 3, countWith(t, spec, rows, chart.Params{ParamPeriod: PeriodAll}))
	assert.Zero(t, countWith(t, spec, rows, chart.Params{ParamPeriod: "since_1990"}))
	assert.Zero(t, countWith(t, spec, rows, chart.Params{ParamPeriod: ""}))
}

func TestEarningsVsSpendingLayers(t *testing.T) {
	spec := lookup(t, TargetEarningsVsSpending)
	require.Len(t, spec.Layer, 2)

	earnings := append(earningsRows(), chart.Datum{"state": "NSW", "gender": "male", "weekly_earnings": "2,000"})
	bars, err := engine.ExecuteLayer(spec, 0, earnings)
	require.NoError(t, err)
	assert.Len(t, bars, 2, "only person rows reach the bar layer")

	spending := []chart.Datum{
		{"state": "NSW", "spending_2023_adj": "8,400"},
		{"state": "AUSTRALIA", "spending_2023_adj": "8,000"},
	}
	points, err := engine.ExecuteLayer(spec, 1, spending)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2100.0, points[0]["weekly_spending"])
}

func TestSpendingCompositionFold(t *testing.T) {
	rows := []chart.Datum{
		{"category": "Food", "percentage_1984": "19", "percentage_2009": "17", "percentage_2015": "16.5", "percentage_2023_est": "16"},
	}
	out, err := engine.Execute(lookup(t, TargetSpendingComposition), rows)
	require.NoError(t, err)
	require.Len(t, out, 4)
	var years []float64
	for _, r := range out {
		years = append(years, r["year_value"].(float64))
	}
	assert.Equal(t, []float64{1984, 2009, 2015, 2023}, years)
}

func pressureRows() []chart.Datum {
	return []chart.Datum{
		{"category": "Food", "employee_pressure": "High", "pensioner_pressure": "High", "self_funded_pressure": "Low", "primary_driver": "Fruit"},
		{"category": "Housing", "employee_pressure": "Very High", "pensioner_pressure": "Very High", "self_funded_pressure": "Very High", "primary_driver": "Rents"},
	}
}

func TestCostPressuresHeatmap(t *testing.T) {
	out, err := engine.Execute(lookup(t, TargetCostPressures), pressureRows())
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.Equal(t, 3.0, out[0]["pressure_score"])
	assert.Equal(t, 1.0, out[2]["pressure_score"])
	assert.Equal(t, "Self-Funded", out[2]["household_type_label"])
	assert.Equal(t, 4.0, out[3]["pressure_score"])
}

func TestPressureMosaicLayout(t *testing.T) {
	spec := lookup(t, TargetPressureMosaic)
	out, err := engine.ExecuteLayer(spec, 0, pressureRows())
	require.NoError(t, err)
	require.Len(t, out, 3, "one tile per (category, level)")

	tiles := make(map[string]chart.Datum)
	for _, r := range out {
		tiles[r["category"].(string)+"/"+r["pressure_level"].(string)] = r
	}
	food, low, housing := tiles["Food/High"], tiles["Food/Low"], tiles["Housing/Very High"]
	require.NotNil(t, food)
	require.NotNil(t, low)
	require.NotNil(t, housing)

	// Columns: Food holds 3 of 6 folded rows, Housing the other 3.
	assert.InDelta(t, 0.0, food["x"], 1e-9)
	assert.InDelta(t, 0.5, food["x2"], 1e-9)
	assert.InDelta(t, 0.5, housing["x"], 1e-9)
	assert.InDelta(t, 1.0, housing["x2"], 1e-9)
	assert.Equal(t, 1.0, food["rank_category"])
	assert.Equal(t, 2.0, housing["rank_category"])

	// Within Food, High (2 of 3) stacks first, above Low.
	assert.Equal(t, 2.0, food["tiles"])
	assert.Equal(t, 1.0, food["rank_severity"])
	assert.Equal(t, 2.0, low["rank_severity"])
	assert.Equal(t, 2.0, food["distinct_severity"])
	assert.InDelta(t, 0.0, food["y"], 1e-9)
	assert.InDelta(t, 2.0/3, food["y2"], 1e-9)
	assert.InDelta(t, 1.0, low["y2"], 1e-9)
	assert.InDelta(t, 1.0, housing["y2"], 1e-9)

	// Gaps offset later tiles.
	assert.InDelta(t, 0.51, housing["nx"], 1e-9)
	assert.InDelta(t, 2.0/3+2*0.01/3, low["ny"], 1e-9)
	assert.InDelta(t, (housing["nx"].(float64)+housing["nx2"].(float64))/2, housing["xc"], 1e-9)
}

func TestExecuteDoesNotMutateRows(t *testing.T) {
	rows := earningsRows()
	before := make([]chart.Datum, len(rows))
	for i, r := range rows {
		before[i] = r.Clone()
	}
	for _, e := range All() {
		_, _ = engine.Execute(e.Spec, rows)
	}
	assert.Equal(t, before, rows)
}
