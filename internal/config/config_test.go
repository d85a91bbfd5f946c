package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Server.RateLimit.Enabled)

	assert.Equal(t, "raster", cfg.Preview.Backend)
	assert.Equal(t, "png", cfg.Preview.Format)
	assert.Equal(t, 2000, cfg.Preview.MaxTriangles)
	assert.Equal(t, 630, cfg.Preview.Width)
	assert.Equal(t, 600, cfg.Preview.Height)

	require.NotNil(t, cfg.Pricing.Rates)
	assert.Equal(t, "PLA", cfg.Pricing.Rates.DefaultMaterial)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestPathsConfig_Derived(t *testing.T) {
	p := PathsConfig{BaseDir: "/srv/quote"}

	assert.Equal(t, filepath.Join("/srv/quote", "static"), p.Static())
	assert.Equal(t, filepath.Join("/srv/quote", "static", "previews"), p.Previews())
	assert.Equal(t, []string{
		filepath.Join("/srv/quote", "templates", "index.html"),
		filepath.Join("/srv/quote", "index.html"),
	}, p.IndexCandidates())

	p.StaticDir = "/var/www"
	assert.Equal(t, filepath.Join("/var/www", "previews"), p.Previews())

	p.PreviewDir = "/tmp/previews"
	assert.Equal(t, "/tmp/previews", p.Previews())
}

func TestPreviewConfig_Options(t *testing.T) {
	pc := DefaultPreviewConfig()
	pc.MaxTriangles = 10
	pc.Width = 100

	opts := pc.Options()
	assert.Equal(t, 10, opts.MaxTriangles)
	assert.Equal(t, 100, opts.Width)
	assert.NotNil(t, opts.Background)
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "raster", cfg.Preview.Backend)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
server:
  addr: "127.0.0.1:9000"
  read_timeout: 5s
  rate_limit:
    enabled: true
    rps: 2
    burst: 4
paths:
  base_dir: /srv/quote
preview:
  backend: none
  format: webp
pricing:
  rates:
    currency: EUR
    materials:
      TPU:
        cost_per_kg: 40
        density_g_cm3: 1.21
    setup_fee: 5
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 4, cfg.Server.RateLimit.Burst)
	assert.Equal(t, "/srv/quote", cfg.Paths.BaseDir)
	assert.Equal(t, "none", cfg.Preview.Backend)
	assert.Equal(t, "webp", cfg.Preview.Format)
	assert.Equal(t, "debug", cfg.Log.Level)

	rates := cfg.Pricing.Rates
	assert.Equal(t, "EUR", rates.Currency)
	assert.Equal(t, int64(5), rates.SetupFee)
	assert.Contains(t, rates.Materials, "TPU")
	assert.Contains(t, rates.Materials, "PLA", "inline tables extend the defaults")
	// Untouched fields keep their defaults.
	assert.Equal(t, 1_500_000.0, rates.MinJobPrice)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("STLQUOTE_SERVER_ADDR", ":7000")
	t.Setenv("STLQUOTE_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("STLQUOTE_SERVER_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("STLQUOTE_SERVER_RATE_LIMIT_ENABLED", "true")
	t.Setenv("STLQUOTE_PREVIEW_LINE_WIDTH", "1.5")
	t.Setenv("STLQUOTE_PRICING_RATES_FILE", "")
	t.Setenv("STLQUOTE_LOG_OUTPUT_PATHS", "stdout, /tmp/quote.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 1.5, cfg.Preview.LineWidth)
	assert.Empty(t, cfg.Pricing.RatesFile)
	assert.Equal(t, []string{"stdout", "/tmp/quote.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  addr: \":1\"\n"), 0o644))
	t.Setenv("STLQUOTE_SERVER_ADDR", ":2")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, ":2", cfg.Server.Addr)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("QUOTE_LOG_LEVEL", "warn")

	cfg, err := NewLoader().WithEnvPrefix("QUOTE").Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("STLQUOTE_SERVER_READ_TIMEOUT", "soon")
		_, err := NewLoader().Load()
		assert.ErrorContains(t, err, "STLQUOTE_SERVER_READ_TIMEOUT")
	})

	t.Run("bad yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0o644))
		_, err := NewLoader().WithConfigPath(configPath).Load()
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("custom validator", func(t *testing.T) {
		_, err := NewLoader().WithValidator(func(*Config) error {
			return assert.AnError
		}).Load()
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "timeouts"},
		{"rate limit without rps", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RPS = 0
		}, "rate_limit"},
		{"backend", func(c *Config) { c.Preview.Backend = "opengl" }, "preview.backend"},
		{"format", func(c *Config) { c.Preview.Format = "gif" }, "preview.format"},
		{"size", func(c *Config) { c.Preview.Width = 0 }, "width and height"},
		{"max triangles", func(c *Config) { c.Preview.MaxTriangles = -1 }, "max_triangles"},
		{"supersample", func(c *Config) { c.Preview.Supersample = 9 }, "supersample"},
		{"no rates", func(c *Config) { c.Pricing.Rates = nil }, "pricing.rates"},
		{"invalid rates", func(c *Config) { c.Pricing.Rates.DefaultMaterial = "Gold" }, "default material"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConfig_ValidateSkipsInlineRatesWithFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pricing.Rates = nil
	cfg.Pricing.RatesFile = "rates.yaml"

	assert.NoError(t, cfg.Validate())
}
