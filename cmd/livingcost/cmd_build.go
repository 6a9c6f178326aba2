package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/render"
)

var buildCmd = &cobra.Command{
	Use:   "build [chart...]",
	Short: "Write each chart's Vega-Lite spec to the output directory",
	Long: `Writes <out_dir>/<chart>.vl.json (or .vl.yaml with format: yaml) for every
chart, or only the charts named. Charts are written independently; a
failure is reported and the remaining charts are still written.`,
	RunE: runBuild,
}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Write an HTML page embedding every chart",
	Long: `Writes <out_dir>/index.html with one vega-embed call per chart. Charts
that fail to encode are left off the page.`,
	Args: cobra.NoArgs,
	RunE: runPage,
}

var previewCmd = &cobra.Command{
	Use:   "preview [chart...]",
	Short: "Render charts to SVG from the local data",
	Long: `Evaluates each chart's transforms over the local sources and draws it as
<out_dir>/<chart>.svg. Heatmaps, mosaics and mixed-mark layers have no
SVG preview and are skipped.`,
	RunE: runPreview,
}

func runBuild(cmd *cobra.Command, args []string) error {
	entries, err := selectEntries(args)
	if err != nil {
		return err
	}
	w := render.SpecWriter{Dir: cfg.OutDir, Format: cfg.Format}
	pending := newSubmitter().SubmitAll(cmd.Context(), w, entries)

	for _, p := range pending {
		if view, err := p.Result(); err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), view.Path)
		}
	}
	return render.Wait(pending)
}

func runPage(cmd *cobra.Command, args []string) error {
	entries, err := selectEntries(nil)
	if err != nil {
		return err
	}
	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.Target
	}

	page := render.NewPage(cfg.Title, order)
	failed := render.Wait(newSubmitter().SubmitAll(cmd.Context(), page, entries))

	path := filepath.Join(cfg.OutDir, "index.html")
	if err := writePage(page, path); err != nil {
		return errors.Join(failed, err)
	}
	logger.Info("page written", zap.String("path", path))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return failed
}

func writePage(page *render.Page, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := page.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write page: %w", err)
	}
	return f.Close()
}

func runPreview(cmd *cobra.Command, args []string) error {
	entries, err := selectEntries(args)
	if err != nil {
		return err
	}

	drawable := entries[:0:0]
	for _, e := range entries {
		if err := render.Supports(e.Spec); err != nil {
			logger.Info("no preview for chart", zap.String("target", e.Target), zap.Error(err))
			continue
		}
		drawable = append(drawable, e)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	preview := render.NewPreview(newCache(), cfg.Preview.Width, cfg.Preview.Height)
	pending := newSubmitter().SubmitAll(cmd.Context(), preview, drawable)

	var errs []error
	for _, p := range pending {
		view, err := p.Result()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path := filepath.Join(cfg.OutDir, view.Target+".svg")
		if err := os.WriteFile(path, view.Data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write preview: %w", err))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return errors.Join(errs...)
}
