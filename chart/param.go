package chart

// ============================================================================
// PARAMETERS — Named, UI-bound interactive values
// ============================================================================
// A Param with Select is a point selection over Select.Fields; filtering by it
// keeps rows whose field value is among the selected values. A Param without
// Select is a plain variable that filter expressions reference by name.
// ============================================================================

// Param is an interactive control with a default value.
type Param struct {
	Name   string     `json:"name"`
	Value  any        `json:"value,omitempty"`
	Select *Selection `json:"select,omitempty"`
	Bind   *Bind      `json:"bind,omitempty"`
}

// Selection turns a param into a point selection over fields.
type Selection struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields,omitempty"`
	Toggle any      `json:"toggle,omitempty"`
}

// Bind describes the widget the param is bound to.
// Input is "select", "radio", "checkbox", or "range".
type Bind struct {
	Input   string   `json:"input"`
	Options []any    `json:"options,omitempty"`
	Labels  []string `json:"labels,omitempty"`
	Name    string   `json:"name,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Step    *float64 `json:"step,omitempty"`
}

// SelectParam builds a point selection over field bound to a select list.
// The default value selects every option.
func SelectParam(name, field, label string, options []string, labels []string) Param {
	opts := make([]any, len(options))
	values := make([]map[string]any, len(options))
	for i, o := range options {
		opts[i] = o
		values[i] = map[string]any{field: o}
	}
	return Param{
		Name:   name,
		Value:  values,
		Select: &Selection{Type: "point", Fields: []string{field}},
		Bind:   &Bind{Input: "select", Options: opts, Labels: labels, Name: label},
	}
}

// CheckboxGroup builds one boolean variable per option, each bound to its own
// checkbox and checked by default. Param names are prefix + "_" + option.
func CheckboxGroup(prefix string, options []string) []Param {
	out := make([]Param, len(options))
	for i, o := range options {
		out[i] = Param{
			Name:  CheckboxName(prefix, o),
			Value: true,
			Bind:  &Bind{Input: "checkbox", Name: o + " "},
		}
	}
	return out
}

// CheckboxName returns the param name for one option of a checkbox group.
func CheckboxName(prefix, option string) string {
	return prefix + "_" + option
}

// RangeParam builds a numeric variable bound to a slider.
func RangeParam(name, label string, value, min, max, step float64) Param {
	return Param{
		Name:  name,
		Value: value,
		Bind:  &Bind{Input: "range", Name: label, Min: &min, Max: &max, Step: &step},
	}
}

// RadioParam builds a string variable bound to radio buttons.
func RadioParam(name, label, value string, options []string, labels []string) Param {
	opts := make([]any, len(options))
	for i, o := range options {
		opts[i] = o
	}
	return Param{
		Name:  name,
		Value: value,
		Bind:  &Bind{Input: "radio", Options: opts, Labels: labels, Name: label},
	}
}

// SelectedField returns the field a point selection filters on.
func (p Param) SelectedField() (string, bool) {
	if p.Select == nil || len(p.Select.Fields) == 0 {
		return "", false
	}
	return p.Select.Fields[0], true
}

// FindParam looks up a param on the spec or its layers.
func (s Spec) FindParam(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	for _, l := range s.Layer {
		if p, ok := l.FindParam(name); ok {
			return p, true
		}
	}
	return Param{}, false
}

// Fields lists every field read by the spec's encodings, including layers.
func (s Spec) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(fs []string) {
		for _, f := range fs {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	if s.Encoding != nil {
		add(s.Encoding.Fields())
	}
	for _, l := range s.Layer {
		add(l.Fields())
	}
	return out
}
