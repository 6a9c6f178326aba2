package chart

import (
	"encoding/json"
)

// ============================================================================
// ENCODINGS — Field-to-channel bindings
// ============================================================================

// Semantic types of an encoded field.
const (
	Nominal      = "nominal"
	Ordinal      = "ordinal"
	Quantitative = "quantitative"
	Temporal     = "temporal"
)

// Encoding maps visual channels to field definitions.
type Encoding struct {
	X         *FieldDef  `json:"x,omitempty"`
	Y         *FieldDef  `json:"y,omitempty"`
	X2        *FieldDef  `json:"x2,omitempty"`
	Y2        *FieldDef  `json:"y2,omitempty"`
	XOffset   *FieldDef  `json:"xOffset,omitempty"`
	Theta     *FieldDef  `json:"theta,omitempty"`
	Longitude *FieldDef  `json:"longitude,omitempty"`
	Latitude  *FieldDef  `json:"latitude,omitempty"`
	Color     *FieldDef  `json:"color,omitempty"`
	Size      *FieldDef  `json:"size,omitempty"`
	Opacity   *FieldDef  `json:"opacity,omitempty"`
	Order     *FieldDef  `json:"order,omitempty"`
	Text      *FieldDef  `json:"text,omitempty"`
	Tooltip   []FieldDef `json:"tooltip,omitempty"`
}

// FieldDef binds one channel to a field (or a constant value).
type FieldDef struct {
	Field     string  `json:"field,omitempty"`
	Type      string  `json:"type,omitempty"`
	Title     string  `json:"title,omitempty"`
	Aggregate string  `json:"aggregate,omitempty"`
	TimeUnit  string  `json:"timeUnit,omitempty"`
	Sort      any     `json:"sort,omitempty"` // "-y", "ascending", or an explicit []string order
	Stack     any     `json:"stack,omitempty"`
	Format    string  `json:"format,omitempty"`
	Scale     *Scale  `json:"scale,omitempty"`
	Axis      *Axis   `json:"axis,omitempty"`
	Legend    *Legend `json:"legend,omitempty"`
	Value     any     `json:"value,omitempty"`
}

// Field returns a field definition of the given semantic type.
func Field(name, typ, title string) *FieldDef {
	return &FieldDef{Field: name, Type: typ, Title: title}
}

// Tip returns a tooltip entry.
func Tip(name, typ, title, format string) FieldDef {
	return FieldDef{Field: name, Type: typ, Title: title, Format: format}
}

// Scale configures a channel's scale.
type Scale struct {
	Domain    any      `json:"domain,omitempty"`
	Range     any      `json:"range,omitempty"`
	Scheme    string   `json:"scheme,omitempty"`
	DomainMid *float64 `json:"domainMid,omitempty"`
	Zero      *bool    `json:"zero,omitempty"`
}

// Axis configures a positional channel's axis. Hidden axes encode as null.
type Axis struct {
	Hidden     bool     `json:"-"`
	Title      string   `json:"title,omitempty"`
	Format     string   `json:"format,omitempty"`
	LabelAngle *float64 `json:"labelAngle,omitempty"`
	TickCount  int      `json:"tickCount,omitempty"`
}

// Angle returns an axis with the given label angle.
func Angle(deg float64) *Axis {
	return &Axis{LabelAngle: &deg}
}

// NoAxis suppresses the axis for a channel.
var NoAxis = &Axis{Hidden: true}

// MarshalJSON emits null for a hidden axis.
func (a Axis) MarshalJSON() ([]byte, error) {
	if a.Hidden {
		return []byte("null"), nil
	}
	type plain Axis
	return json.Marshal(plain(a))
}

// Legend configures a channel's legend. Disabled legends encode as null.
type Legend struct {
	Disabled bool   `json:"-"`
	Title    string `json:"title,omitempty"`
	Orient   string `json:"orient,omitempty"`
}

// NoLegend suppresses the legend for a channel.
var NoLegend = &Legend{Disabled: true}

// MarshalJSON emits null for a disabled legend.
func (l Legend) MarshalJSON() ([]byte, error) {
	if l.Disabled {
		return []byte("null"), nil
	}
	type plain Legend
	return json.Marshal(plain(l))
}

// Float returns a pointer to v, for optional numeric settings.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// channels returns the non-nil field definitions in declaration order.
func (e Encoding) channels() []FieldDef {
	var out []FieldDef
	for _, fd := range []*FieldDef{
		e.X, e.Y, e.X2, e.Y2, e.XOffset, e.Theta, e.Longitude, e.Latitude,
		e.Color, e.Size, e.Opacity, e.Order, e.Text,
	} {
		if fd != nil {
			out = append(out, *fd)
		}
	}
	return append(out, e.Tooltip...)
}

// Fields lists the distinct fields the encoding reads, in channel order.
func (e Encoding) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fd := range e.channels() {
		if fd.Field != "" && !seen[fd.Field] {
			seen[fd.Field] = true
			out = append(out, fd.Field)
		}
	}
	return out
}
