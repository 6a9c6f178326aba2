package render

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/livingcost/catalog"
	"github.com/spektr-org/livingcost/chart"
)

func TestSpecWriterJSON(t *testing.T) {
	dir := t.TempDir()
	e, ok := catalog.Lookup(catalog.TargetEarningsByGender)
	require.True(t, ok)

	view, err := SpecWriter{Dir: dir}.Render(context.Background(), e.Target, e.Spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "earnings_by_gender.vl.json"), view.Path)
	assert.Equal(t, "application/json", view.ContentType)

	data, err := os.ReadFile(view.Path)
	require.NoError(t, err)
	assert.Equal(t, view.Data, data)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, chart.SchemaURL, doc["$schema"])
	assert.Equal(t, "bar", doc["mark"].(map[string]any)["type"])
}

func TestSpecWriterYAMLKeepsKeyOrder(t *testing.T) {
	e, _ := catalog.Lookup(catalog.TargetInflationTrends)
	view, err := SpecWriter{Format: FormatYAML}.Render(context.Background(), e.Target, e.Spec)
	require.NoError(t, err)
	assert.Empty(t, view.Path)

	out := string(view.Data)
	assert.True(t, strings.HasPrefix(out, "$schema:"), out)
	assert.Less(t, strings.Index(out, "\ntitle:"), strings.Index(out, "\ntransform:"))
	assert.NotContains(t, out, "{\"", "flow style is dropped")

	var viaYAML map[string]any
	require.NoError(t, yaml.Unmarshal(view.Data, &viaYAML))
	var viaJSON map[string]any
	js, err := EncodeSpec(e.Spec, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(js, &viaJSON))
	assert.Equal(t, viaJSON["title"], viaYAML["title"])
	assert.Len(t, viaYAML["layer"], 2)
}

func TestEncodeSpecUnknownFormat(t *testing.T) {
	_, err := EncodeSpec(chart.Spec{}, "toml")
	assert.Error(t, err)
}

func TestSpecWriterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SpecWriter{}.Render(ctx, "x", chart.Spec{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageOrdersCharts(t *testing.T) {
	order := catalog.Targets()
	page := NewPage("Cost of Living", order)

	// Render in reverse; the page still follows the declared order.
	entries := catalog.All()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Target == catalog.TargetCostPressures {
			continue
		}
		_, err := page.Render(context.Background(), entries[i].Target, entries[i].Spec)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := page.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	html := buf.String()
	assert.Equal(t, len(order)-1, strings.Count(html, "vegaEmbed("))
	assert.Equal(t, len(order)-1, strings.Count(html, ".catch("))
	assert.NotContains(t, html, `id="`+catalog.TargetCostPressures+`"`)

	first := strings.Index(html, `id="`+catalog.TargetEarningsByGender+`"`)
	last := strings.Index(html, `id="`+catalog.TargetCategoryInflation+`"`)
	require.NotEqual(t, -1, first)
	assert.Less(t, first, last)
	assert.Contains(t, html, "<title>Cost of Living</title>")
}
