package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
	"github.com/spektr-org/livingcost/helpers"
)

// ============================================================================
// PREVIEW — Local SVG rendering through go-chart
// ============================================================================
// Pipeline per chart:
//   1. Load the chart's sources through the shared cache
//   2. Evaluate transforms with the engine (declared param defaults)
//   3. Map the encoding onto a go-chart bar, pie or XY chart
//   4. Render SVG
//
// Heatmaps, mosaics and layers mixing mark types have no go-chart
// equivalent and fail with ErrUnsupportedMark.
// ============================================================================

// Default preview canvas.
const (
	DefaultPreviewWidth  = 800
	DefaultPreviewHeight = 400
)

var palette = []string{"#3498db", "#e74c3c", "#2ecc71", "#9b59b6", "#f39c12", "#1abc9c", "#34495e", "#e67e22"}

// Preview renders charts to SVG from local data.
type Preview struct {
	cache  *helpers.Cache
	width  int
	height int
	params chart.Params
}

// NewPreview creates an SVG renderer reading sources through cache.
// Non-positive sizes fall back to the defaults.
func NewPreview(cache *helpers.Cache, width, height int) *Preview {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	if height <= 0 {
		height = DefaultPreviewHeight
	}
	return &Preview{cache: cache, width: width, height: height}
}

// WithParams returns a copy of p that evaluates charts with params overriding
// their declared defaults.
func (p *Preview) WithParams(params chart.Params) *Preview {
	cp := *p
	cp.params = params
	return &cp
}

type svgChart interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Render draws spec as SVG.
func (p *Preview) Render(ctx context.Context, target string, spec chart.Spec) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	c, err := p.build(spec)
	if err != nil {
		return View{}, err
	}
	var buf bytes.Buffer
	if err := c.Render(gochart.SVG, &buf); err != nil {
		return View{}, fmt.Errorf("draw svg: %w", err)
	}
	return View{Target: target, ContentType: "image/svg+xml", Data: buf.Bytes()}, nil
}

func (p *Preview) build(spec chart.Spec) (svgChart, error) {
	height := p.height
	if spec.Height > 0 {
		height = spec.Height
	}

	if err := Supports(spec); err != nil {
		return nil, err
	}

	if len(spec.Layer) == 0 {
		rows, err := p.rows(spec, -1)
		if err != nil {
			return nil, err
		}
		switch spec.Mark.Type {
		case "bar":
			return barChart(spec.Title, p.width, height, spec.Mark, spec.Encoding, rows)
		case "arc":
			return pieChart(spec.Title, p.width, height, spec.Encoding, rows)
		default:
			series, err := xySeries(spec.Mark, spec.Encoding, rows, 0)
			if err != nil {
				return nil, err
			}
			return xyChart(spec.Title, p.width, height, spec.Encoding, series), nil
		}
	}

	var series []gochart.Series
	var enc *chart.Encoding
	for i, l := range spec.Layer {
		rows, err := p.rows(spec, i)
		if err != nil {
			return nil, err
		}
		e := mergeEncoding(spec.Encoding, l.Encoding)
		s, err := xySeries(l.Mark, e, rows, len(series))
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		series = append(series, s...)
		if enc == nil {
			enc = e
		}
	}
	return xyChart(spec.Title, p.width, height, enc, series), nil
}

// Supports reports whether the preview can draw spec, returning an error
// wrapping ErrUnsupportedMark when it cannot.
func Supports(spec chart.Spec) error {
	if len(spec.Layer) == 0 {
		if spec.Mark == nil || spec.Encoding == nil {
			return fmt.Errorf("%w: spec has no mark", ErrUnsupportedMark)
		}
		if m := spec.Mark.Type; m != "bar" && m != "arc" && !isXY(m) {
			return fmt.Errorf("%w: %s", ErrUnsupportedMark, m)
		}
		return nil
	}

	marks := make([]string, len(spec.Layer))
	for i, l := range spec.Layer {
		if l.Mark == nil {
			return fmt.Errorf("%w: layer %d has no mark", ErrUnsupportedMark, i)
		}
		marks[i] = l.Mark.Type
	}
	for _, m := range marks {
		if m != marks[0] || !isXY(m) {
			return fmt.Errorf("%w: layered %s", ErrUnsupportedMark, strings.Join(marks, "+"))
		}
	}
	return nil
}

// rows evaluates the top-level spec (layer < 0) or one layer.
func (p *Preview) rows(spec chart.Spec, layer int) ([]chart.Datum, error) {
	src := spec.Data
	if layer >= 0 {
		src = spec.DataFor(spec.Layer[layer])
	}
	if src == nil {
		return nil, fmt.Errorf("spec has no data")
	}
	t, err := p.cache.Get(*src)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{engine.WithParams(p.params)}
	if layer < 0 {
		return engine.Execute(spec, t.Rows, opts...)
	}
	return engine.ExecuteLayer(spec, layer, t.Rows, opts...)
}

func isXY(mark string) bool {
	switch mark {
	case "line", "area", "point", "circle":
		return true
	}
	return false
}

// mergeEncoding overlays a layer's channels on the parent's.
func mergeEncoding(parent, layer *chart.Encoding) *chart.Encoding {
	switch {
	case parent == nil:
		return layer
	case layer == nil:
		return parent
	}
	out := *parent
	for _, ch := range []struct{ dst, src **chart.FieldDef }{
		{&out.X, &layer.X}, {&out.Y, &layer.Y}, {&out.Color, &layer.Color},
		{&out.Longitude, &layer.Longitude}, {&out.Latitude, &layer.Latitude},
	} {
		if *ch.src != nil {
			*ch.dst = *ch.src
		}
	}
	return &out
}

// ── Bar & pie ────────────────────────────────────────────────────────────────

type labelled struct {
	labels []string
	totals map[string]float64
}

func (l *labelled) add(label string, v float64) {
	if l.totals == nil {
		l.totals = make(map[string]float64)
	}
	if _, ok := l.totals[label]; !ok {
		l.labels = append(l.labels, label)
	}
	l.totals[label] += v
}

func (l *labelled) values(style func(i int) gochart.Style) []gochart.Value {
	out := make([]gochart.Value, len(l.labels))
	for i, label := range l.labels {
		out[i] = gochart.Value{Label: label, Value: l.totals[label], Style: style(i)}
	}
	return out
}

func barChart(title string, width, height int, mark *chart.Mark, enc *chart.Encoding, rows []chart.Datum) (svgChart, error) {
	category, value := enc.X, enc.Y
	if category != nil && category.Type == chart.Quantitative {
		category, value = value, category
	}
	if category == nil || value == nil {
		return nil, fmt.Errorf("%w: bar needs a category and a value channel", ErrUnsupportedMark)
	}

	var agg labelled
	for _, d := range rows {
		v, ok := engine.Number(d[value.Field])
		if !ok {
			continue
		}
		label := engine.Text(d[category.Field])
		if enc.XOffset != nil {
			label += " " + engine.Text(d[enc.XOffset.Field])
		}
		agg.add(label, v)
	}

	fill := colorAt(mark.Color, 0)
	return &gochart.BarChart{
		Title:        title,
		Width:        width,
		Height:       height,
		BarWidth:     barWidth(width, len(agg.labels), 2),
		BarSpacing:   barWidth(width, len(agg.labels), 4),
		UseBaseValue: true,
		Bars: agg.values(func(int) gochart.Style {
			return gochart.Style{FillColor: fill, StrokeColor: fill}
		}),
	}, nil
}

// barWidth shares width/div between n bars, at least one pixel each.
func barWidth(width, n, div int) int {
	if n == 0 {
		return 1
	}
	return max(width/(div*n), 1)
}

func pieChart(title string, width, height int, enc *chart.Encoding, rows []chart.Datum) (svgChart, error) {
	if enc.Theta == nil || enc.Color == nil {
		return nil, fmt.Errorf("%w: arc needs theta and color channels", ErrUnsupportedMark)
	}
	var agg labelled
	for _, d := range rows {
		v, ok := engine.Number(d[enc.Theta.Field])
		if !ok || v <= 0 {
			continue
		}
		agg.add(engine.Text(d[enc.Color.Field]), v)
	}
	return &gochart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Values: agg.values(func(i int) gochart.Style {
			c := colorAt("", i)
			return gochart.Style{FillColor: c, StrokeColor: drawing.ColorWhite}
		}),
	}, nil
}

// ── XY ───────────────────────────────────────────────────────────────────────

type point struct {
	x  float64
	t  time.Time
	y  float64
	ok bool
}

// xySeries builds one series per color group. offset shifts palette picks so
// layered series stay distinguishable.
func xySeries(mark *chart.Mark, enc *chart.Encoding, rows []chart.Datum, offset int) ([]gochart.Series, error) {
	xf, yf := enc.X, enc.Y
	if enc.Longitude != nil && enc.Latitude != nil {
		xf, yf = enc.Longitude, enc.Latitude
	}
	if xf == nil || yf == nil {
		return nil, fmt.Errorf("%w: %s needs x and y channels", ErrUnsupportedMark, mark.Type)
	}
	temporal := xf.Type == chart.Temporal

	var groups []string
	byGroup := make(map[string][]point)
	for _, d := range rows {
		pt := point{}
		if y, ok := engine.Number(d[yf.Field]); ok {
			pt.y = y
			if temporal {
				pt.t, pt.ok = asTime(d[xf.Field])
			} else {
				pt.x, pt.ok = engine.Number(d[xf.Field])
			}
		}
		if !pt.ok {
			continue
		}
		g := ""
		if enc.Color != nil && enc.Color.Field != "" {
			g = engine.Text(d[enc.Color.Field])
		}
		if _, seen := byGroup[g]; !seen {
			groups = append(groups, g)
		}
		byGroup[g] = append(byGroup[g], pt)
	}

	var out []gochart.Series
	for i, g := range groups {
		pts := byGroup[g]
		sort.SliceStable(pts, func(a, b int) bool {
			if temporal {
				return pts[a].t.Before(pts[b].t)
			}
			return pts[a].x < pts[b].x
		})
		name := g
		if name == "" {
			name = yf.Title
		}
		style := seriesStyle(mark, offset+i, len(groups) > 1)
		ys := make([]float64, len(pts))
		for j, pt := range pts {
			ys[j] = pt.y
		}
		if temporal {
			xs := make([]time.Time, len(pts))
			for j, pt := range pts {
				xs[j] = pt.t
			}
			out = append(out, gochart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: style})
			continue
		}
		xs := make([]float64, len(pts))
		for j, pt := range pts {
			xs[j] = pt.x
		}
		out = append(out, gochart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style})
	}
	return out, nil
}

func seriesStyle(mark *chart.Mark, i int, grouped bool) gochart.Style {
	hex := mark.Stroke
	if hex == "" {
		hex = mark.Color
	}
	if grouped {
		hex = ""
	}
	c := colorAt(hex, i)

	switch mark.Type {
	case "point", "circle":
		return gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 4, DotColor: c}
	case "area":
		return gochart.Style{StrokeColor: c, StrokeWidth: 1, FillColor: c.WithAlpha(96)}
	}
	s := gochart.Style{StrokeColor: c, StrokeWidth: 2, StrokeDashArray: mark.StrokeDash}
	if mark.StrokeWidth > 0 {
		s.StrokeWidth = mark.StrokeWidth
	}
	if mark.Point {
		s.DotWidth = 3
		s.DotColor = c
	}
	return s
}

func xyChart(title string, width, height int, enc *chart.Encoding, series []gochart.Series) svgChart {
	ch := gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Series: series,
	}
	if enc != nil {
		if enc.X != nil {
			ch.XAxis.Name = enc.X.Title
			if enc.X.Type == chart.Temporal {
				ch.XAxis.ValueFormatter = gochart.TimeValueFormatterWithFormat("2006-01")
			}
		}
		if enc.Y != nil {
			ch.YAxis.Name = enc.Y.Title
		}
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return &ch
}

// ── Values ───────────────────────────────────────────────────────────────────

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// colorAt parses hex, falling back to the palette entry for i.
func colorAt(hex string, i int) drawing.Color {
	if hex == "" {
		hex = palette[i%len(palette)]
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
