package chart

// ============================================================================
// CHART SPEC — Declarative Vega-Lite v5 chart record
// ============================================================================
// A Spec fully describes one visualization: data source, ordered transforms,
// encodings, parameters, and optional layers. Specs are built once and handed
// to a renderer by value. Nothing in this module mutates a Spec after it has
// been constructed.
// ============================================================================

// SchemaURL is the Vega-Lite schema every top-level spec declares.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Datum is a single data row keyed by column or derived field name.
// Values loaded from sources are strings; calculated fields may be any type.
type Datum map[string]any

// Clone returns a shallow copy of the row.
func (d Datum) Clone() Datum {
	out := make(Datum, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Spec is a Vega-Lite chart specification.
type Spec struct {
	Schema      string      `json:"$schema,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Width       any         `json:"width,omitempty"` // "container" or pixels
	Height      int         `json:"height,omitempty"`
	Data        *Data       `json:"data,omitempty"`
	Params      []Param     `json:"params,omitempty"`
	Transform   []Transform `json:"transform,omitempty"`
	Mark        *Mark       `json:"mark,omitempty"`
	Encoding    *Encoding   `json:"encoding,omitempty"`
	Layer       []Spec      `json:"layer,omitempty"`
	VConcat     []Spec      `json:"vconcat,omitempty"`
	HConcat     []Spec      `json:"hconcat,omitempty"`
	View        *ViewConfig `json:"view,omitempty"`
	Config      *Config     `json:"config,omitempty"`
}

// Data references a row source.
type Data struct {
	URL    string  `json:"url"`
	Format *Format `json:"format,omitempty"`
}

// Format describes how to parse the source. Type is "csv", "tsv" or "dsv".
type Format struct {
	Type      string `json:"type,omitempty"`
	Delimiter string `json:"delimiter,omitempty"`
}

// CSV returns a comma-delimited data reference.
func CSV(url string) *Data {
	return &Data{URL: url}
}

// TSV returns a tab-delimited data reference.
func TSV(url string) *Data {
	return &Data{URL: url, Format: &Format{Type: "dsv", Delimiter: "\t"}}
}

// Delimiter returns the field separator implied by the format.
func (d Data) Delimiter() rune {
	if d.Format == nil {
		return ','
	}
	switch d.Format.Type {
	case "tsv":
		return '\t'
	case "dsv":
		if r := []rune(d.Format.Delimiter); len(r) == 1 {
			return r[0]
		}
	}
	return ','
}

// Mark is the graphical primitive of a (sub)spec.
type Mark struct {
	Type        string    `json:"type"`
	InnerRadius float64   `json:"innerRadius,omitempty"`
	Tooltip     any       `json:"tooltip,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	StrokeDash  []float64 `json:"strokeDash,omitempty"`
	Point       bool      `json:"point,omitempty"`
	Filled      bool      `json:"filled,omitempty"`
	Size        float64   `json:"size,omitempty"`
	Color       string    `json:"color,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"`
}

// MarkOf returns a bare mark of the given type.
func MarkOf(typ string) *Mark {
	return &Mark{Type: typ}
}

// ViewConfig styles the view background. A nil stroke is emitted as null.
type ViewConfig struct {
	NoStroke bool `json:"-"`
}

// MarshalJSON emits {"stroke": null} when the stroke is suppressed.
func (v ViewConfig) MarshalJSON() ([]byte, error) {
	if v.NoStroke {
		return []byte(`{"stroke":null}`), nil
	}
	return []byte(`{}`), nil
}

// Config holds chart-wide styling.
type Config struct {
	Axis   *FontConfig `json:"axis,omitempty"`
	Legend *FontConfig `json:"legend,omitempty"`
	View   *ViewConfig `json:"view,omitempty"`
}

// FontConfig sets label and title font sizes.
type FontConfig struct {
	LabelFontSize int `json:"labelFontSize,omitempty"`
	TitleFontSize int `json:"titleFontSize,omitempty"`
}

// DataFor returns the data reference in effect for a layer, falling back to
// the parent's when the layer declares none.
func (s Spec) DataFor(layer Spec) *Data {
	if layer.Data != nil {
		return layer.Data
	}
	return s.Data
}

// DefaultParams returns the initial value of every parameter declared on the
// spec and its layers.
func (s Spec) DefaultParams() map[string]any {
	out := make(map[string]any)
	for _, p := range s.Params {
		out[p.Name] = p.Value
	}
	for _, l := range s.Layer {
		for k, v := range l.DefaultParams() {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}

// Sources lists the distinct data URLs used by the spec and its sub-specs,
// in first-seen order.
func (s Spec) Sources() []Data {
	seen := make(map[string]bool)
	var out []Data
	var walk func(Spec)
	walk = func(sp Spec) {
		if sp.Data != nil && !seen[sp.Data.URL] {
			seen[sp.Data.URL] = true
			out = append(out, *sp.Data)
		}
		for _, sub := range sp.Layer {
			walk(sub)
		}
		for _, sub := range sp.VConcat {
			walk(sub)
		}
		for _, sub := range sp.HConcat {
			walk(sub)
		}
	}
	walk(s)
	return out
}
