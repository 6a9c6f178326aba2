package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/schema"
)

var lintProfile bool

var lintCmd = &cobra.Command{
	Use:   "lint [chart...]",
	Short: "Check every chart against the columns of its sources",
	Long: `Reads the header of every source a chart uses and reports encoded fields
and transform inputs that no column or earlier transform provides.
With --profile, prints the detected column kinds of each source instead.`,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintProfile, "profile", false, "Print source column profiles")
}

func runLint(cmd *cobra.Command, args []string) error {
	entries, err := selectEntries(args)
	if err != nil {
		return err
	}
	cache := newCache()
	tables, err := cache.LoadAll(cmd.Context(), specsOf(entries)...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lintProfile {
		var profiles []*schema.Profile
		for _, e := range entries {
			for _, src := range e.Spec.Sources() {
				t := tables[src.URL]
				p, err := schema.Discover(src.URL, t.Headers, t.Rows)
				if err != nil {
					return fmt.Errorf("profile %s: %w", src.URL, err)
				}
				profiles = append(profiles, p)
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dedupe(profiles))
	}

	columns := make(map[string][]string, len(tables))
	for url, t := range tables {
		columns[url] = t.Headers
	}

	total := 0
	for _, e := range entries {
		issues := schema.Lint(e.Spec, columns)
		for _, i := range issues {
			fmt.Fprintf(out, "%s: %s\n", e.Target, i)
		}
		total += len(issues)
		logger.Debug("chart linted", zap.String("target", e.Target), zap.Int("issues", len(issues)))
	}
	if total > 0 {
		return fmt.Errorf("%d lint issue(s)", total)
	}
	fmt.Fprintf(out, "%d charts ok\n", len(entries))
	return nil
}

func dedupe(profiles []*schema.Profile) []*schema.Profile {
	seen := make(map[string]bool)
	out := profiles[:0]
	for _, p := range profiles {
		if !seen[p.Source] {
			seen[p.Source] = true
			out = append(out, p)
		}
	}
	return out
}
