package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ============================================================================
// CONFIG — Layered settings for the livingcost CLI
// ============================================================================
// Precedence (lowest first): built-in defaults, livingcost.yaml, LIVINGCOST_*
// environment variables. Nested keys map to env vars with "_" for ".", so
// serve.addr is LIVINGCOST_SERVE_ADDR.
// ============================================================================

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "LIVINGCOST"

// Config holds every setting the CLI reads.
type Config struct {
	Root        string            `mapstructure:"root"`
	DataDir     string            `mapstructure:"data_dir"`
	OutDir      string            `mapstructure:"out_dir"`
	Format      string            `mapstructure:"format"`
	WeeklyWage  float64           `mapstructure:"weekly_wage"`
	Concurrency int               `mapstructure:"concurrency"`
	LogLevel    string            `mapstructure:"log_level"`
	Title       string            `mapstructure:"title"`
	Targets     map[string]string `mapstructure:"targets"`
	Serve       Serve             `mapstructure:"serve"`
	Preview     Preview           `mapstructure:"preview"`
}

// Serve configures the HTTP preview server.
type Serve struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Preview sizes the SVG preview canvas.
type Preview struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Root:        ".",
		DataDir:     "data",
		OutDir:      "dist",
		Format:      "json",
		WeeklyWage:  2010,
		Concurrency: 0,
		LogLevel:    "info",
		Title:       "Cost of Living in Australia",
		Serve: Serve{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Preview: Preview{Width: 800, Height: 400},
	}
}

// Load reads configuration. An empty path searches the working directory for
// livingcost.yaml and carries on with defaults when there is none; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("livingcost")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to keys
// absent from the file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("root", cfg.Root)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("out_dir", cfg.OutDir)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("weekly_wage", cfg.WeeklyWage)
	v.SetDefault("concurrency", cfg.Concurrency)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("title", cfg.Title)
	v.SetDefault("targets", map[string]string{})
	v.SetDefault("serve.addr", cfg.Serve.Addr)
	v.SetDefault("serve.allowed_origins", cfg.Serve.AllowedOrigins)
	v.SetDefault("preview.width", cfg.Preview.Width)
	v.SetDefault("preview.height", cfg.Preview.Height)
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	var errs []error
	if c.WeeklyWage <= 0 {
		errs = append(errs, fmt.Errorf("weekly_wage must be positive, got %v", c.WeeklyWage))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	switch c.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("format must be json or yaml, got %q", c.Format))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	return errors.Join(errs...)
}
