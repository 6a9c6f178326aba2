package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/engine"
	"github.com/spektr-org/livingcost/helpers"
)

var (
	rowsFormat string
	rowsOut    string
	rowsLayer  int
	rowsParams []string
)

var rowsCmd = &cobra.Command{
	Use:   "rows <chart>",
	Short: "Dump the rows a chart plots after its transforms",
	Long: `Evaluates a chart's transforms over the local data and writes the resulting
rows as csv, json or xlsx. A layered chart yields the rows of every layer in
order unless --layer picks one. Parameters start at their declared defaults
and can be overridden with --param name=value.

Example:
  livingcost rows earnings_by_gender --param gender_select=female --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runRows,
}

func init() {
	rowsCmd.Flags().StringVarP(&rowsFormat, "format", "f", "csv", "Output format: csv, json, xlsx")
	rowsCmd.Flags().StringVarP(&rowsOut, "out", "o", "", "Write to file instead of stdout")
	rowsCmd.Flags().IntVar(&rowsLayer, "layer", -1, "Evaluate one layer of a layered chart")
	rowsCmd.Flags().StringArrayVarP(&rowsParams, "param", "p", nil, "Override a parameter (name=value)")
}

func runRows(cmd *cobra.Command, args []string) error {
	entries, err := selectEntries(args)
	if err != nil {
		return err
	}
	e := entries[0]
	params, err := parseParams(rowsParams)
	if err != nil {
		return err
	}

	cache := newCache()
	opts := []engine.Option{engine.WithParams(params), engine.WithLogger(logger)}
	var (
		rows    []chart.Datum
		headers []string
	)
	switch {
	case rowsLayer >= len(e.Spec.Layer):
		return fmt.Errorf("chart %s has %d layers", e.Target, len(e.Spec.Layer))
	case rowsLayer < 0 && len(e.Spec.Layer) > 0:
		rows, err = engine.ExecuteLayers(e.Spec, func(src chart.Data) ([]chart.Datum, error) {
			table, err := cache.Get(src)
			if err != nil {
				return nil, err
			}
			headers = append(headers, table.Headers...)
			return table.Rows, nil
		}, opts...)
	default:
		src := e.Spec.Data
		if rowsLayer >= 0 {
			src = e.Spec.DataFor(e.Spec.Layer[rowsLayer])
		}
		if src == nil {
			return fmt.Errorf("chart %s has no data source", e.Target)
		}
		table, lerr := cache.Get(*src)
		if lerr != nil {
			return lerr
		}
		headers = table.Headers
		if rowsLayer >= 0 {
			rows, err = engine.ExecuteLayer(e.Spec, rowsLayer, table.Rows, opts...)
		} else {
			rows, err = engine.Execute(e.Spec, table.Rows, opts...)
		}
	}
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", e.Target, err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if rowsOut != "" {
		f, err := os.Create(rowsOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := helpers.WriteRows(w, rowsFormat, e.Target, helpers.Columns(rows, headers), rows); err != nil {
		return err
	}
	logger.Debug("rows written",
		zap.String("target", e.Target),
		zap.Int("rows", len(rows)),
		zap.String("format", rowsFormat))
	return nil
}

// parseParams reads name=value pairs. Values that parse as numbers or
// booleans are typed accordingly.
func parseParams(pairs []string) (chart.Params, error) {
	out := make(chart.Params, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad --param %q, want name=value", p)
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[name] = f
		} else if b, err := strconv.ParseBool(value); err == nil {
			out[name] = b
		} else {
			out[name] = value
		}
	}
	return out, nil
}
