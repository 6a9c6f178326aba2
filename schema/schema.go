package schema

// ============================================================================
// SCHEMA — Describes the shape of a chart data source
// ============================================================================
// Profiles are discovered from loaded rows. Lint uses a profile's column
// names to check that every field a chart reads exists by the time it is
// read. The CLI prints profiles so source problems (currency text that was
// never cleaned, quarters that will not parse) are visible before rendering.
// ============================================================================

// Kind classifies a column by what its values look like.
type Kind string

const (
	// KindNumeric values parse as numbers as-is.
	KindNumeric Kind = "numeric"
	// KindCurrencyText values are numbers only once separators and a
	// currency sign are stripped ("2,010", "$1,800.50").
	KindCurrencyText Kind = "currency_text"
	// KindTemporal values are dates, months or quarters.
	KindTemporal Kind = "temporal"
	// KindNominal is everything else.
	KindNominal Kind = "nominal"
	// KindEmpty columns hold no values.
	KindEmpty Kind = "empty"
)

// Profile describes one data source.
type Profile struct {
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Column describes one source column.
type Column struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"displayName"`
	Kind            Kind     `json:"kind"`
	TemporalFormat  string   `json:"temporalFormat,omitempty"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	UniqueCount     int      `json:"uniqueCount"`
	NullCount       int      `json:"nullCount"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// Names returns the column names in source order.
func (p Profile) Names() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (p Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnsOf returns the names of every column of the given kind.
func (p Profile) ColumnsOf(kind Kind) []string {
	var out []string
	for _, c := range p.Columns {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}
