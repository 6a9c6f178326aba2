package schema

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column classification
// ============================================================================
// Classification pipeline per column:
//   1. Sample values → count nulls and unique values
//   2. Detect kind (numeric, currency text, temporal, nominal)
//   3. Detect temporal format for string-shaped dates (quarters, months)
//   4. Set cardinality hint
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int // Max rows to inspect (0 = all). Default: 1000
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Discover profiles rows loaded from source. headers fixes the column order.
func Discover(source string, headers []string, rows []chart.Datum, opts ...DiscoverOptions) (*Profile, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if len(headers) == 0 {
		return nil, errors.New("source has no columns")
	}

	sample := rows
	if opt.SampleSize > 0 && len(sample) > opt.SampleSize {
		sample = sample[:opt.SampleSize]
	}

	p := &Profile{Source: source, Rows: len(rows)}
	for _, h := range headers {
		if h == "" {
			continue
		}
		p.Columns = append(p.Columns, analyzeColumn(h, sample))
	}
	return p, nil
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(name string, rows []chart.Datum) Column {
	col := Column{Name: name, DisplayName: toDisplayName(name)}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		val := strings.TrimSpace(engine.Text(row[name]))
		if isNull(val) {
			col.NullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.UniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.Kind = KindEmpty
		return col
	}

	col.SampleValues = collectSamples(uniqueSet, 10)
	col.Kind, col.TemporalFormat = detectKind(values, col.SampleValues)

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

func isNull(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a", "-":
		return true
	}
	return false
}

// ============================================================================
// KIND DETECTION
// ============================================================================

// detectKind requires 80%+ of non-null values to match a kind. Temporal
// patterns are tried before numbers so bare years are read as dates.
func detectKind(values, samples []string) (Kind, string) {
	if ok, format := detectTemporalPattern(samples); ok {
		return KindTemporal, format
	}

	numCount, currencyCount, dateCount := 0, 0, 0
	for _, v := range values {
		switch {
		case isPlainNumber(v):
			numCount++
		case isCurrencyText(v):
			currencyCount++
		}
		if isDate(v) {
			dateCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	switch {
	case dateCount >= threshold:
		return KindTemporal, "date"
	case numCount >= threshold:
		return KindNumeric, ""
	case numCount+currencyCount >= threshold && currencyCount > 0:
		return KindCurrencyText, ""
	}
	return KindNominal, ""
}

func isPlainNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// isCurrencyText reports whether s only parses once separators and a
// currency sign are removed.
func isCurrencyText(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ",$€£") {
		return false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^\d{4}-Q[1-4]$`), "yyyy-QN"},         // 2023-Q3
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"}, // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},          // 2026-01
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},         // Q1-2026
	{regexp.MustCompile(`^Q[1-4]\s+\d{4}$`), "QN yyyy"},       // Q1 2026
	{regexp.MustCompile(`^[A-Z][a-z]+ \d{4}$`), "MMMM yyyy"},  // January 2026
}

// detectTemporalPattern checks if values match known month/quarter patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}

	return false, ""
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "weekly_earnings" → "Weekly Earnings", "state" → "State"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
