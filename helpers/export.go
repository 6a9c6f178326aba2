package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// ============================================================================
// ROW EXPORT — Evaluated rows as CSV, JSON, or XLSX
// ============================================================================

// Columns orders the fields present in rows: leading columns first (usually
// the source headers), then every other field sorted by name.
func Columns(rows []chart.Datum, leading []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range leading {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	var extra []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// WriteRows writes rows in format ("csv", "json", or "xlsx").
func WriteRows(w io.Writer, format, sheet string, columns []string, rows []chart.Datum) error {
	switch format {
	case "csv":
		return writeCSV(w, columns, rows)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonSafe(rows))
	case "xlsx":
		return writeXLSX(w, sheet, columns, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func writeCSV(w io.Writer, columns []string, rows []chart.Datum) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			rec[i] = engine.Text(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, sheet string, columns []string, rows []chart.Datum) error {
	if sheet == "" {
		sheet = "rows"
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for n, r := range rows {
		vals := make([]any, len(columns))
		for i, c := range columns {
			vals[i] = cellValue(r[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// jsonSafe replaces NaN and infinite values, which JSON cannot carry, with
// null. Rows holding neither are passed through uncopied.
func jsonSafe(rows []chart.Datum) []chart.Datum {
	out := make([]chart.Datum, len(rows))
	for i, r := range rows {
		out[i] = r
		copied := false
		for k, v := range r {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				if !copied {
					out[i] = r.Clone()
					copied = true
				}
				out[i][k] = nil
			}
		}
	}
	return out
}

// cellValue keeps numbers numeric and renders everything else as text.
func cellValue(v any) any {
	switch x := v.(type) {
	case float64:
		if f, ok := engine.Number(x); ok && !math.IsInf(f, 0) {
			return f
		}
		return ""
	case bool:
		return x
	}
	return engine.Text(v)
}
