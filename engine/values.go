package engine

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// VALUES — Loose typing for row fields
// ============================================================================
// Source rows hold strings; calculated fields hold float64, string, bool or
// time.Time. These helpers give every transform the same view of a value.
// ============================================================================

// Number coerces v to a float64. Strings are trimmed and parsed as-is, so
// text with thousands separators is NOT a number until it has been cleaned.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(x.UnixMilli()), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Text renders v as a string for grouping keys and label lookups.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	}
	return ""
}

// Valid reports whether v counts as a present value for aggregation.
func Valid(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return !math.IsNaN(x)
	}
	return true
}

// Compare orders two field values: missing values first, then numbers and
// times by magnitude, then everything else as text.
func Compare(a, b any) int {
	av, bv := Valid(a), Valid(b)
	switch {
	case !av && !bv:
		return 0
	case !av:
		return -1
	case !bv:
		return 1
	}
	if isNumeric(a) && isNumeric(b) {
		x, _ := Number(a)
		y, _ := Number(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(Text(a), Text(b))
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, time.Time:
		return true
	}
	return false
}

// groupKey joins the text of several fields into a single map key.
func groupKey(row map[string]any, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Text(row[f])
	}
	return strings.Join(parts, "\x1f")
}
