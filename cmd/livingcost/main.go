package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/livingcost/catalog"
	"github.com/spektr-org/livingcost/chart"
	"github.com/spektr-org/livingcost/config"
	"github.com/spektr-org/livingcost/helpers"
	"github.com/spektr-org/livingcost/render"
)

// ============================================================================
// LIVINGCOST CLI — Cost-of-living chart specs for the web page
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "livingcost",
	Short: "Build the cost-of-living page charts",
	Long: `livingcost builds the Vega-Lite charts of the Australian cost-of-living page.

Every chart is a declarative spec over the CSV/TSV sources in the data
directory. Specs can be written as JSON or YAML, embedded in an HTML page,
previewed as SVG, or served over HTTP while the data directory is edited.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		zc.Level = level
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logger, err = zc.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "livingcost %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./livingcost.yaml)")

	rootCmd.AddCommand(buildCmd, pageCmd, previewCmd, rowsCmd, lintCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ============================================================================
// SHARED HELPERS
// ============================================================================

func catalogOptions() []catalog.Option {
	return []catalog.Option{
		catalog.WithWeeklyWage(cfg.WeeklyWage),
		catalog.WithDataDir(cfg.DataDir),
		catalog.WithTargets(cfg.Targets),
	}
}

// selectEntries returns the charts named in args, or every chart when args
// is empty.
func selectEntries(args []string) ([]catalog.Entry, error) {
	all := catalog.All(catalogOptions()...)
	if len(args) == 0 {
		return all, nil
	}
	byTarget := make(map[string]catalog.Entry, len(all))
	for _, e := range all {
		byTarget[e.Target] = e
	}
	out := make([]catalog.Entry, 0, len(args))
	for _, a := range args {
		e, ok := byTarget[a]
		if !ok {
			return nil, fmt.Errorf("unknown chart %q (known: %v)", a, catalog.Targets(catalogOptions()...))
		}
		out = append(out, e)
	}
	return out, nil
}

func specsOf(entries []catalog.Entry) []chart.Spec {
	out := make([]chart.Spec, len(entries))
	for i, e := range entries {
		out[i] = e.Spec
	}
	return out
}

func newSubmitter(extra ...render.Option) *render.Submitter {
	opts := []render.Option{
		render.WithLogger(logger),
		render.WithConcurrency(cfg.Concurrency),
	}
	return render.NewSubmitter(append(opts, extra...)...)
}

func newCache() *helpers.Cache {
	return helpers.NewCache(cfg.Root, logger)
}
