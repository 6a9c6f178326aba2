// Package livingcost builds the charts of the Australian cost-of-living page.
//
// Usage:
//
//	import "github.com/spektr-org/livingcost/catalog"
//
//	for _, e := range catalog.All(catalog.WithWeeklyWage(2010)) {
//	    // e.Target is the page element, e.Spec the Vega-Lite chart.
//	}
//
// Each chart is a declarative Vega-Lite v5 spec: a data source, ordered
// transforms, encodings and interactive parameters. The engine package
// evaluates those transforms locally so the business rules can be tested and
// previewed; the page itself hands the specs to vega-embed.
//
// Rendering is handled by the render package. Submissions never wait on
// each other and a failing chart never affects its siblings.
package livingcost
