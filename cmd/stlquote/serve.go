package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/internal/config"
	"github.com/unitech3d/stlquote/internal/metrics"
	"github.com/unitech3d/stlquote/internal/quote"
	"github.com/unitech3d/stlquote/internal/server"
	"github.com/unitech3d/stlquote/pkg/preview"
	"github.com/unitech3d/stlquote/version"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the quote HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting stlquote",
		zap.String("version", version.GetFullVersion()),
		zap.String("addr", cfg.Server.Addr),
		zap.String("preview_backend", cfg.Preview.Backend),
	)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("stlquote", logger)
	}

	rates, err := config.OpenRateStore(cfg.Pricing, logger)
	if err != nil {
		return fmt.Errorf("failed to load rates: %w", err)
	}
	if collector != nil {
		rates.OnLoad(collector.RecordRateReload)
	}
	if cfg.Pricing.Watch && rates.Path() != "" {
		if err := rates.Watch(ctx, cfg.Pricing.WatchDebounce); err != nil {
			return err
		}
		logger.Info("Watching rate table", zap.String("path", rates.Path()))
	}

	store, err := newPreviewStore(cfg.Preview, cfg.Paths.Previews(), logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(store.Dir(), 0o755); err != nil {
		logger.Warn("Preview directory unavailable", zap.String("dir", store.Dir()), zap.Error(err))
	}

	// A nil *Collector must not become a non-nil Recorder.
	var recorder quote.Recorder
	if collector != nil {
		recorder = collector
	}

	srv := server.New(server.Options{
		Quotes:         quote.NewService(rates, store, recorder, logger),
		Metrics:        collector,
		MetricsPath:    cfg.Metrics.Path,
		StaticDir:      cfg.Paths.Static(),
		IndexFiles:     cfg.Paths.IndexCandidates(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimit:      cfg.Server.RateLimit,
		Logger:         logger,
	})

	return srv.ListenAndServe(ctx, cfg.Server)
}

func newPreviewStore(cfg config.PreviewConfig, dir string, logger *zap.Logger) (*preview.Store, error) {
	renderer, err := preview.NewRenderer(cfg.Backend)
	if err != nil {
		return nil, err
	}
	encoder, err := preview.NewEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}
	return preview.NewStore(dir, "/static/previews", renderer, encoder, cfg.Options(), logger), nil
}
