package config

import (
	"time"

	"github.com/unitech3d/stlquote/pkg/preview"
	"github.com/unitech3d/stlquote/pkg/pricing"
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Server:  DefaultServerConfig(),
		Paths:   PathsConfig{BaseDir: "."},
		Preview: DefaultPreviewConfig(),
		Pricing: PricingConfig{
			WatchDebounce: 250 * time.Millisecond,
			Rates:         pricing.DefaultRateTable(),
		},
		Log: DefaultLogConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultServerConfig listens on every interface, port 8000.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "0.0.0.0:8000",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxUploadBytes:  64 << 20,
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     5,
			Burst:   10,
		},
	}
}

// DefaultPreviewConfig mirrors preview.DefaultOptions.
func DefaultPreviewConfig() PreviewConfig {
	opts := preview.DefaultOptions()
	return PreviewConfig{
		Backend:      "raster",
		Format:       "png",
		Width:        opts.Width,
		Height:       opts.Height,
		LineWidth:    opts.LineWidth,
		MaxTriangles: opts.MaxTriangles,
		Supersample:  opts.Supersample,
	}
}

// DefaultLogConfig logs JSON at info level to stdout.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// Options converts the preview settings for the renderer.
func (p PreviewConfig) Options() preview.Options {
	opts := preview.DefaultOptions()
	opts.Width = p.Width
	opts.Height = p.Height
	opts.LineWidth = p.LineWidth
	opts.MaxTriangles = p.MaxTriangles
	opts.Supersample = p.Supersample
	return opts
}
