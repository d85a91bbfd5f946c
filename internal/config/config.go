// Package config loads the quote server configuration from defaults, an
// optional YAML file and STLQUOTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/unitech3d/stlquote/pkg/pricing"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" env:"SERVER"`
	Paths   PathsConfig   `yaml:"paths" env:"PATHS"`
	Preview PreviewConfig `yaml:"preview" env:"PREVIEW"`
	Pricing PricingConfig `yaml:"pricing" env:"PRICING"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string          `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// RateLimitConfig throttles /calculate per client IP.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"ENABLED"`
	RPS     float64 `yaml:"rps" env:"RPS"`
	Burst   int     `yaml:"burst" env:"BURST"`
}

// PathsConfig locates the front-end files. Empty directories are derived
// from BaseDir.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" env:"BASE_DIR"`
	StaticDir  string `yaml:"static_dir" env:"STATIC_DIR"`
	PreviewDir string `yaml:"preview_dir" env:"PREVIEW_DIR"`
}

// Static returns the directory served under /static/.
func (p PathsConfig) Static() string {
	if p.StaticDir != "" {
		return p.StaticDir
	}
	return filepath.Join(p.BaseDir, "static")
}

// Previews returns the directory preview images are written to.
func (p PathsConfig) Previews() string {
	if p.PreviewDir != "" {
		return p.PreviewDir
	}
	return filepath.Join(p.Static(), "previews")
}

// IndexCandidates lists the home page files in lookup order.
func (p PathsConfig) IndexCandidates() []string {
	return []string{
		filepath.Join(p.BaseDir, "templates", "index.html"),
		filepath.Join(p.BaseDir, "index.html"),
	}
}

// PreviewConfig selects and tunes the preview renderer.
type PreviewConfig struct {
	Backend      string  `yaml:"backend" env:"BACKEND"`
	Format       string  `yaml:"format" env:"FORMAT"`
	Width        int     `yaml:"width" env:"WIDTH"`
	Height       int     `yaml:"height" env:"HEIGHT"`
	LineWidth    float64 `yaml:"line_width" env:"LINE_WIDTH"`
	MaxTriangles int     `yaml:"max_triangles" env:"MAX_TRIANGLES"`
	Supersample  int     `yaml:"supersample" env:"SUPERSAMPLE"`
}

// PricingConfig holds the rate table, either inline or in a separate file
// that can be reloaded while the server runs.
type PricingConfig struct {
	RatesFile     string             `yaml:"rates_file" env:"RATES_FILE"`
	Watch         bool               `yaml:"watch" env:"WATCH"`
	WatchDebounce time.Duration      `yaml:"watch_debounce" env:"WATCH_DEBOUNCE"`
	Rates         *pricing.RateTable `yaml:"rates" env:"-"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

var (
	validBackends  = []string{"raster", "fyne", "none"}
	validFormats   = []string{"png", "webp"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validLogFormat = []string{"json", "console"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("server.rate_limit needs positive rps and burst when enabled"))
	}

	if !oneOf(c.Preview.Backend, validBackends) {
		errs = append(errs, fmt.Errorf("preview.backend %q must be one of %s", c.Preview.Backend, strings.Join(validBackends, ", ")))
	}
	if !oneOf(c.Preview.Format, validFormats) {
		errs = append(errs, fmt.Errorf("preview.format %q must be one of %s", c.Preview.Format, strings.Join(validFormats, ", ")))
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, errors.New("preview width and height must be positive"))
	}
	if c.Preview.MaxTriangles <= 0 {
		errs = append(errs, errors.New("preview.max_triangles must be positive"))
	}
	if c.Preview.Supersample < 1 || c.Preview.Supersample > 4 {
		errs = append(errs, errors.New("preview.supersample must be between 1 and 4"))
	}

	if c.Pricing.RatesFile == "" {
		if c.Pricing.Rates == nil {
			errs = append(errs, errors.New("pricing.rates or pricing.rates_file is required"))
		} else if err := c.Pricing.Rates.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if !oneOf(c.Log.Level, validLogLevels) {
		errs = append(errs, fmt.Errorf("log.level %q must be one of %s", c.Log.Level, strings.Join(validLogLevels, ", ")))
	}
	if !oneOf(c.Log.Format, validLogFormat) {
		errs = append(errs, fmt.Errorf("log.format %q must be one of %s", c.Log.Format, strings.Join(validLogFormat, ", ")))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}

	return errors.Join(errs...)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}
