package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/livingcost/catalog"
	"github.com/spektr-org/livingcost/config"
	"github.com/spektr-org/livingcost/helpers"
	"github.com/spektr-org/livingcost/render"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the page, specs and SVG previews over HTTP",
	Long: `Starts an HTTP server:
  /                          the page with every chart embedded
  /charts/<chart>.json       one chart's Vega-Lite spec
  /preview/<chart>.svg       one chart drawn from the local data
  /<data_dir>/...            the data sources the page loads
  /metrics                   Prometheus metrics

Edits under the data directory drop cached sources and rebuild the page.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	if err := srv.rebuild(ctx); err != nil {
		logger.Warn("initial page build had failures", zap.Error(err))
	}

	w, err := srv.watch(ctx)
	if err != nil {
		logger.Warn("data directory not watched", zap.Error(err))
	} else {
		defer w.Close()
	}

	httpSrv := &http.Server{
		Addr:         cfg.Serve.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", cfg.Serve.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// server holds the state behind the HTTP handlers.
type server struct {
	cfg       config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	cache     *helpers.Cache
	submitter *render.Submitter
	preview   *render.Preview
	entries   map[string]catalog.Entry
	order     []catalog.Entry

	mu   sync.RWMutex
	page []byte
}

func newServer(c config.Config, logger *zap.Logger, reg *prometheus.Registry) (*server, error) {
	metrics, err := render.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	opts := []catalog.Option{
		catalog.WithWeeklyWage(c.WeeklyWage),
		catalog.WithDataDir(c.DataDir),
		catalog.WithTargets(c.Targets),
	}
	cache := helpers.NewCache(c.Root, logger)
	s := &server{
		cfg:      c,
		logger:   logger,
		registry: reg,
		cache:    cache,
		submitter: render.NewSubmitter(
			render.WithLogger(logger),
			render.WithConcurrency(c.Concurrency),
			render.WithMetrics(metrics),
		),
		preview: render.NewPreview(cache, c.Preview.Width, c.Preview.Height),
		order:   catalog.All(opts...),
		entries: make(map[string]catalog.Entry),
	}
	for _, e := range s.order {
		s.entries[e.Target] = e
	}
	return s, nil
}

// Handler returns the routes wrapped in CORS.
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /charts/{file}", s.handleSpec)
	mux.HandleFunc("GET /preview/{file}", s.handlePreview)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	dataPrefix := "/" + strings.Trim(path.Clean(filepath.ToSlash(s.cfg.DataDir)), "/") + "/"
	dataDir := http.Dir(filepath.Join(s.cfg.Root, s.cfg.DataDir))
	mux.Handle("GET "+dataPrefix, http.StripPrefix(dataPrefix, http.FileServer(dataDir)))

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Serve.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// rebuild re-renders the page from every chart.
func (s *server) rebuild(ctx context.Context) error {
	order := make([]string, len(s.order))
	for i, e := range s.order {
		order[i] = e.Target
	}
	page := render.NewPage(s.cfg.Title, order)
	failed := render.Wait(s.submitter.SubmitAll(ctx, page, s.order))

	var buf bytes.Buffer
	if _, err := page.WriteTo(&buf); err != nil {
		return errors.Join(failed, err)
	}
	s.mu.Lock()
	s.page = buf.Bytes()
	s.mu.Unlock()
	return failed
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()
	if page == nil {
		http.Error(w, "page not built", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request, ext string) (catalog.Entry, bool) {
	target, ok := strings.CutSuffix(r.PathValue("file"), ext)
	if !ok {
		http.NotFound(w, r)
		return catalog.Entry{}, false
	}
	e, ok := s.entries[target]
	if !ok {
		http.NotFound(w, r)
	}
	return e, ok
}

func (s *server) handleSpec(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, ".json")
	if !ok {
		return
	}
	data, err := render.EncodeSpec(e.Spec, render.FormatJSON)
	if err != nil {
		s.logger.Error("encode spec", zap.String("target", e.Target), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, ".svg")
	if !ok {
		return
	}
	view, err := s.submitter.Submit(r.Context(), s.preview, e.Target, e.Spec).Result()
	switch {
	case errors.Is(err, render.ErrUnsupportedMark):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", view.ContentType)
	_, _ = w.Write(view.Data)
}

// ============================================================================
// DATA WATCHER
// ============================================================================

const rebuildDebounce = 250 * time.Millisecond

// watch drops cached sources and rebuilds the page whenever the data
// directory changes. Bursts of events within rebuildDebounce trigger one
// rebuild. The returned watcher must be closed by the caller.
func (s *server) watch(ctx context.Context) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.cfg.Root, s.cfg.DataDir)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	s.logger.Info("watching data directory", zap.String("dir", dir))

	go func() {
		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !dataChanged(event) {
					continue
				}
				s.logger.Debug("data changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(rebuildDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Error("watcher error", zap.Error(err))
			case <-fire:
				s.cache.Invalidate()
				if err := s.rebuild(ctx); err != nil {
					s.logger.Warn("rebuild had failures", zap.Error(err))
				} else {
					s.logger.Info("page rebuilt")
				}
			}
		}
	}()
	return w, nil
}

// dataChanged ignores chmod-only events.
func dataChanged(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
