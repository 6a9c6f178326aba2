package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "livingcost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	if diff := cmp.Diff(Default(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data_dir: public/data
weekly_wage: 1950.5
concurrency: 3
serve:
  addr: 127.0.0.1:9000
  allowed_origins: [https://example.org]
preview:
  width: 1024
targets:
  earnings_by_gender: earnings-chart
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "public/data", cfg.DataDir)
	assert.Equal(t, 1950.5, cfg.WeeklyWage)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
	assert.Equal(t, []string{"https://example.org"}, cfg.Serve.AllowedOrigins)
	assert.Equal(t, 1024, cfg.Preview.Width)
	assert.Equal(t, 400, cfg.Preview.Height, "unset keys keep defaults")
	assert.Equal(t, "earnings-chart", cfg.Targets["earnings_by_gender"])
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "weekly_wage: 1900\n")
	t.Setenv("LIVINGCOST_WEEKLY_WAGE", "2100")
	t.Setenv("LIVINGCOST_SERVE_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2100.0, cfg.WeeklyWage)
	assert.Equal(t, ":9999", cfg.Serve.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.WeeklyWage = 0
	cfg.Concurrency = -1
	cfg.Format = "toml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly_wage")
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), "format")

	path := writeConfig(t, "weekly_wage: -5\n")
	_, err = Load(path)
	assert.Error(t, err)
}
