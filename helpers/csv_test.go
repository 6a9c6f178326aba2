package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// SOURCE TESTS
// ============================================================================

var earningsTSV = []byte("\xEF\xBB\xBFstate\tgender\tweekly_earnings\n" +
	"NSW\tperson\t1,800.50\n" +
	"\n" +
	"VIC\tperson\t\"2,100\"\n" +
	"\t\t\n" +
	"AUSTRALIA\tperson\n")

func TestParseDelimitedTSV(t *testing.T) {
	tbl, err := ParseDelimited(earningsTSV, '\t')
	require.NoError(t, err)

	assert.Equal(t, []string{"state", "gender", "weekly_earnings"}, tbl.Headers, "BOM is stripped from the first header")
	require.Len(t, tbl.Rows, 3, "blank rows are skipped")
	assert.Equal(t, "1,800.50", tbl.Rows[0]["weekly_earnings"])
	assert.Equal(t, "2,100", tbl.Rows[1]["weekly_earnings"])
	assert.Equal(t, "", tbl.Rows[2]["weekly_earnings"], "short rows are padded")
}

func TestParseDelimitedCSV(t *testing.T) {
	data := []byte("category,percentage_2023_est\n\"Current housing costs\",24.5\nFood, 16\n")
	tbl, err := ParseDelimited(data, ',')
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Current housing costs", tbl.Rows[0]["category"])
	assert.Equal(t, "16", tbl.Rows[1]["percentage_2023_est"], "cells are trimmed")
}

func TestParseDelimitedEmpty(t *testing.T) {
	_, err := ParseDelimited([]byte("\n\n"), ',')
	assert.Error(t, err)
}

func TestXLSXRoundTrip(t *testing.T) {
	rows := []chart.Datum{
		{"category": "Food", "pressure": "High", "score": 3.0},
		{"category": "Housing", "pressure": "Very High", "score": 4.0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, "xlsx", "pressures", []string{"category", "pressure", "score"}, rows))

	tbl, err := ParseXLSX(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "pressure", "score"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Very High", tbl.Rows[1]["pressure"])
	assert.Equal(t, "4", tbl.Rows[1]["score"])
}

func TestWriteRowsCSVAndJSON(t *testing.T) {
	rows := []chart.Datum{{"state": "NSW", "weekly_earnings_numeric": 1800.5}}

	var csvOut bytes.Buffer
	require.NoError(t, WriteRows(&csvOut, "csv", "", Columns(rows, []string{"state"}), rows))
	assert.Equal(t, "state,weekly_earnings_numeric\nNSW,1800.5\n", csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, WriteRows(&jsonOut, "json", "", nil, rows))
	var back []map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &back))
	assert.Equal(t, 1800.5, back[0]["weekly_earnings_numeric"])

	err := WriteRows(&jsonOut, "parquet", "", nil, rows)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestWriteRowsNullsNonFiniteNumbers(t *testing.T) {
	rows := []chart.Datum{
		{"state": "NSW", "ratio": math.Inf(1)},
		{"state": "VIC", "ratio": math.Inf(-1)},
		{"state": "QLD", "ratio": math.NaN()},
		{"state": "WA", "ratio": 0.5},
	}

	var jsonOut bytes.Buffer
	require.NoError(t, WriteRows(&jsonOut, "json", "", nil, rows))
	var back []map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &back))
	require.Len(t, back, 4)
	for _, r := range back[:3] {
		assert.Contains(t, r, "ratio")
		assert.Nil(t, r["ratio"], r["state"])
	}
	assert.Equal(t, 0.5, back[3]["ratio"])
	assert.True(t, math.IsInf(rows[0]["ratio"].(float64), 1), "input rows are left untouched")

	var xlsxOut bytes.Buffer
	require.NoError(t, WriteRows(&xlsxOut, "xlsx", "", []string{"state", "ratio"}, rows))
	tbl, err := ParseXLSX(xlsxOut.Bytes())
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 4)
	assert.Empty(t, tbl.Rows[0]["ratio"])
	assert.Equal(t, "0.5", tbl.Rows[3]["ratio"])
}

func TestColumnsOrder(t *testing.T) {
	rows := []chart.Datum{{"b": 1, "state": "NSW", "a": 2}, {"c": 3}}
	assert.Equal(t, []string{"state", "a", "b", "c"}, Columns(rows, []string{"state"}))
}

// ── Loading & cache ───────────────────────────────────────────────────────────

func writeSource(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "data/earnings_data.csv", earningsTSV)
	writeSource(t, dir, "data/notes.json", []byte(`{}`))

	tbl, err := Load(dir, *chart.TSV("data/earnings_data.csv"))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)

	_, err = Load(dir, *chart.CSV("data/notes.json"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Load(dir, *chart.CSV("data/missing.csv"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestCacheSharesLoads(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "data/earnings_data.csv", earningsTSV)
	cache := NewCache(dir, nil)
	src := *chart.TSV("data/earnings_data.csv")

	var wg sync.WaitGroup
	results := make([]Table, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := cache.Get(src)
			assert.NoError(t, err)
			results[i] = tbl
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Len(t, r.Rows, 3)
	}

	// Cached until invalidated.
	writeSource(t, dir, "data/earnings_data.csv", []byte("state\tgender\tweekly_earnings\nNSW\tmale\t2,000\n"))
	tbl, err := cache.Get(src)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)

	cache.Invalidate()
	tbl, err = cache.Get(src)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "data/a.csv", []byte("x\n1\n2\n"))
	writeSource(t, dir, "data/b.csv", []byte("y\n3\n"))
	spec := chart.Spec{
		Data:  chart.CSV("data/a.csv"),
		Layer: []chart.Spec{{}, {Data: chart.CSV("data/b.csv")}},
	}

	cache := NewCache(dir, nil)
	tables, err := cache.LoadAll(context.Background(), spec, spec)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
	assert.Len(t, tables["data/a.csv"].Rows, 2)
	assert.Len(t, tables["data/b.csv"].Rows, 1)

	broken := chart.Spec{Data: chart.CSV("data/missing.csv")}
	_, err = cache.LoadAll(context.Background(), spec, broken)
	assert.Error(t, err)
}
