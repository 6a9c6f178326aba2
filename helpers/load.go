package helpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/spektr-org/livingcost/chart"
)

// ErrUnsupportedFormat is returned for source files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// Load reads one data source relative to dir. The file extension picks the
// parser: .xlsx reads the first sheet, delimited text uses the delimiter the
// source declares.
func Load(dir string, src chart.Data) (Table, error) {
	path := filepath.Join(dir, filepath.FromSlash(src.URL))
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv", ".dsv", ".txt", ".xlsx":
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read source %s: %w", src.URL, err)
	}

	var t Table
	if ext == ".xlsx" {
		t, err = ParseXLSX(data)
	} else {
		t, err = ParseDelimited(data, src.Delimiter())
	}
	if err != nil {
		return Table{}, fmt.Errorf("parse source %s: %w", src.URL, err)
	}
	return t, nil
}

// Cache loads each source at most once. Concurrent requests for the same
// source share a single read.
type Cache struct {
	dir    string
	logger *zap.Logger

	mu     sync.Mutex
	tables map[string]Table
	group  singleflight.Group
}

// NewCache creates a cache over sources under dir. A nil logger is a no-op.
func NewCache(dir string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, logger: logger, tables: make(map[string]Table)}
}

// Dir returns the directory sources are read from.
func (c *Cache) Dir() string { return c.dir }

// Get returns the parsed source, loading it on first use.
func (c *Cache) Get(src chart.Data) (Table, error) {
	key := src.URL
	c.mu.Lock()
	t, ok := c.tables[key]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		t, err := Load(c.dir, src)
		if err != nil {
			return Table{}, err
		}
		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()
		c.logger.Debug("source loaded",
			zap.String("source", key),
			zap.Int("rows", len(t.Rows)),
			zap.Int("columns", len(t.Headers)))
		return t, nil
	})
	if err != nil {
		return Table{}, err
	}
	if shared {
		c.logger.Debug("source load shared", zap.String("source", key))
	}
	return v.(Table), nil
}

// Invalidate drops every cached source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.tables = make(map[string]Table)
	c.mu.Unlock()
}

// LoadAll loads every distinct source of specs in parallel. The first failure
// cancels the remaining loads.
func (c *Cache) LoadAll(ctx context.Context, specs ...chart.Spec) (map[string]Table, error) {
	var srcs []chart.Data
	seen := make(map[string]bool)
	for _, s := range specs {
		for _, d := range s.Sources() {
			if !seen[d.URL] {
				seen[d.URL] = true
				srcs = append(srcs, d)
			}
		}
	}

	var mu sync.Mutex
	out := make(map[string]Table, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := c.Get(d)
			if err != nil {
				return err
			}
			mu.Lock()
			out[d.URL] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
