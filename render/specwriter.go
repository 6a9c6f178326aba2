package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/livingcost/chart"
)

// Spec output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SpecWriter writes each chart's Vega-Lite spec to <Dir>/<target>.vl.<format>.
// An empty Dir keeps the encoded spec in the View only.
type SpecWriter struct {
	Dir    string
	Format string
}

// Render encodes spec and writes it under w.Dir.
func (w SpecWriter) Render(ctx context.Context, target string, spec chart.Spec) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	format := w.Format
	if format == "" {
		format = FormatJSON
	}
	data, err := EncodeSpec(spec, format)
	if err != nil {
		return View{}, err
	}

	view := View{Target: target, ContentType: contentType(format), Data: data}
	if w.Dir == "" {
		return view, nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return View{}, fmt.Errorf("create output dir: %w", err)
	}
	view.Path = filepath.Join(w.Dir, target+".vl."+format)
	if err := os.WriteFile(view.Path, data, 0o644); err != nil {
		return View{}, fmt.Errorf("write spec: %w", err)
	}
	return view, nil
}

// EncodeSpec serializes spec as indented JSON or as YAML.
func EncodeSpec(spec chart.Spec, format string) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal spec: %w", err)
	}
	switch format {
	case FormatJSON:
		return append(data, '\n'), nil
	case FormatYAML:
		return jsonToYAML(data)
	default:
		return nil, fmt.Errorf("unknown spec format %q", format)
	}
}

// jsonToYAML re-encodes JSON as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	blockStyle(&doc)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

// blockStyle drops the flow and quoting styles JSON input carries.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func contentType(format string) string {
	if format == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
