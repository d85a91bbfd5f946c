package config

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/pkg/pricing"
	"github.com/unitech3d/stlquote/pkg/watcher"
)

// RateStore hands out the current rate table. When the table comes from a
// rates file, Reload swaps in a new table atomically; requests already in
// flight keep the table they started with.
type RateStore struct {
	current atomic.Pointer[pricing.RateTable]
	path    string
	logger  *zap.Logger
	reloads atomic.Uint64
	onLoad  func(ok bool)

	// reloadMu orders reloads so an older read never replaces a newer table.
	reloadMu sync.Mutex
}

// NewRateStore serves a fixed table.
func NewRateStore(table *pricing.RateTable, logger *zap.Logger) *RateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RateStore{logger: logger.With(zap.String("component", "rates"))}
	s.current.Store(table)
	return s
}

// OpenRateStore builds the store described by cfg. With a rates file the
// file must load cleanly at startup.
func OpenRateStore(cfg PricingConfig, logger *zap.Logger) (*RateStore, error) {
	if cfg.RatesFile == "" {
		if cfg.Rates == nil {
			return nil, errors.New("no rate table configured")
		}
		return NewRateStore(cfg.Rates, logger), nil
	}

	table, err := pricing.LoadRateTable(cfg.RatesFile)
	if err != nil {
		return nil, err
	}
	s := NewRateStore(table, logger)
	s.path = cfg.RatesFile
	return s, nil
}

// Rates returns the table to price the next request with.
func (s *RateStore) Rates() *pricing.RateTable {
	return s.current.Load()
}

// Path returns the rates file, or "" for a fixed table.
func (s *RateStore) Path() string { return s.path }

// Reloads counts successful reloads.
func (s *RateStore) Reloads() uint64 { return s.reloads.Load() }

// OnLoad registers a hook called after every reload attempt.
func (s *RateStore) OnLoad(fn func(ok bool)) { s.onLoad = fn }

// Reload re-reads the rates file. On error the previous table stays active.
// Concurrent calls run one at a time.
func (s *RateStore) Reload() error {
	if s.path == "" {
		return errors.New("rate table is not file backed")
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	table, err := pricing.LoadRateTable(s.path)
	if s.onLoad != nil {
		s.onLoad(err == nil)
	}
	if err != nil {
		s.logger.Warn("Keeping previous rate table", zap.String("path", s.path), zap.Error(err))
		return err
	}

	s.current.Store(table)
	s.reloads.Add(1)
	s.logger.Info("Rate table reloaded",
		zap.String("path", s.path),
		zap.String("currency", table.Currency),
		zap.Strings("materials", table.MaterialNames()),
	)
	return nil
}

// Watch reloads the table whenever the rates file changes, until ctx is
// cancelled. It returns once the watch is registered.
func (s *RateStore) Watch(ctx context.Context, debounce time.Duration) error {
	if s.path == "" {
		return errors.New("rate table is not file backed")
	}

	fw, err := watcher.NewFileWatcher(debounce, s.logger)
	if err != nil {
		return err
	}
	if err := fw.Watch(s.path, func(string) { _ = s.Reload() }); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch rate table: %w", err)
	}

	go fw.Run(ctx)
	return nil
}
