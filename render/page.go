package render

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/spektr-org/livingcost/chart"
)

// Page collects rendered charts and writes them as one HTML document with a
// vega-embed call per chart. Charts appear in the order given to NewPage;
// targets that never rendered are left out.
type Page struct {
	title string
	order []string

	mu    sync.Mutex
	specs map[string][]byte
}

// NewPage creates a page laying charts out in order.
func NewPage(title string, order []string) *Page {
	return &Page{title: title, order: order, specs: make(map[string][]byte)}
}

// Render records the chart for the page.
func (p *Page) Render(ctx context.Context, target string, spec chart.Spec) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return View{}, fmt.Errorf("marshal spec: %w", err)
	}
	p.mu.Lock()
	p.specs[target] = data
	p.mu.Unlock()
	return View{Target: target, ContentType: "application/json", Data: data}, nil
}

type pageChart struct {
	Target string
	Spec   template.JS
}

// WriteTo writes the HTML document.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	p.mu.Lock()
	var charts []pageChart
	for _, t := range p.order {
		if data, ok := p.specs[t]; ok {
			// json.Marshal escapes <, > and &, so the spec is safe inside <script>.
			charts = append(charts, pageChart{Target: t, Spec: template.JS(data)})
		}
	}
	p.mu.Unlock()

	cw := &countingWriter{w: w}
	err := pageTemplate.Execute(cw, struct {
		Title  string
		Charts []pageChart
	}{p.title, charts})
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Charts}}<div id="{{.Target}}" class="chart"></div>
{{end}}<script>
{{range .Charts}}vegaEmbed({{printf "#%s" .Target}}, {{.Spec}}, {actions: false})
  .then(function () { console.log({{printf "%s chart loaded." .Target}}); })
  .catch(function (err) { console.error({{printf "%s chart failed:" .Target}}, err); });
{{end}}</script>
</body>
</html>
`))
