package helpers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/livingcost/chart"
)

// ============================================================================
// SOURCE PARSERS — Delimited text and XLSX into []chart.Datum
// ============================================================================
// Consumer reads the source from wherever it lives (file, HTTP, embed).
// These helpers convert the raw bytes into rows of strings keyed by header.
// Typing happens later, in the chart's own transforms.
// ============================================================================

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed source: headers in file order and one row per record.
type Table struct {
	Headers []string
	Rows    []chart.Datum
}

// ParseDelimited parses CSV/TSV/DSV bytes. A leading UTF-8 BOM is dropped,
// blank lines and all-empty rows are skipped, and short rows are padded
// with empty strings.
func ParseDelimited(data []byte, delimiter rune) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read delimited data: %w", err)
	}
	return tableFrom(records)
}

// ParseXLSX parses the first sheet of an XLSX workbook.
func ParseXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("xlsx workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx sheet %q: %w", sheets[0], err)
	}
	return tableFrom(records)
}

// tableFrom takes the first non-blank record as the header row.
func tableFrom(records [][]string) (Table, error) {
	var t Table
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if t.Headers == nil {
			t.Headers = make([]string, len(rec))
			for i, h := range rec {
				t.Headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(chart.Datum, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" {
				continue
			}
			val := ""
			if i < len(rec) {
				val = strings.TrimSpace(rec[i])
			}
			row[h] = val
		}
		t.Rows = append(t.Rows, row)
	}

	if t.Headers == nil {
		return Table{}, errors.New("no header row found")
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
