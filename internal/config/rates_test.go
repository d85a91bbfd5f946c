package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/pkg/pricing"
)

const ratesYAML = `
currency: EUR
materials:
  PLA:
    cost_per_kg: 25
    density_g_cm3: 1.24
qualities:
  normal:
    shell_factor: 0.2
    flow_rate_mm3_s: 10
machine_rate_per_hour: 3
setup_fee: 2
min_job_price: 5
`

func writeRates(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpenRateStore_Inline(t *testing.T) {
	table := pricing.DefaultRateTable()
	store, err := OpenRateStore(PricingConfig{Rates: table}, zap.NewNop())
	require.NoError(t, err)

	assert.Same(t, table, store.Rates())
	assert.Empty(t, store.Path())
	assert.Error(t, store.Reload())
}

func TestOpenRateStore_NoTable(t *testing.T) {
	_, err := OpenRateStore(PricingConfig{}, nil)
	assert.Error(t, err)
}

func TestOpenRateStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	writeRates(t, path, ratesYAML)

	store, err := OpenRateStore(PricingConfig{RatesFile: path, Rates: pricing.DefaultRateTable()}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "EUR", store.Rates().Currency)
	assert.Equal(t, path, store.Path())
}

func TestOpenRateStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	writeRates(t, path, "materials: {}\n")

	_, err := OpenRateStore(PricingConfig{RatesFile: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestRateStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	writeRates(t, path, ratesYAML)

	store, err := OpenRateStore(PricingConfig{RatesFile: path}, zap.NewNop())
	require.NoError(t, err)
	before := store.Rates()

	var results []bool
	store.OnLoad(func(ok bool) { results = append(results, ok) })

	writeRates(t, path, "materials: [broken")
	assert.Error(t, store.Reload())
	assert.Same(t, before, store.Rates())
	assert.Equal(t, uint64(0), store.Reloads())

	writeRates(t, path, "currency: USD\n"+ratesYAML[len("\ncurrency: EUR"):])
	require.NoError(t, store.Reload())
	assert.Equal(t, "USD", store.Rates().Currency)
	assert.Equal(t, uint64(1), store.Reloads())

	assert.Equal(t, []bool{false, true}, results)
}

func TestRateStore_ReloadsDoNotOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	writeRates(t, path, ratesYAML)

	store, err := OpenRateStore(PricingConfig{RatesFile: path}, zap.NewNop())
	require.NoError(t, err)

	var inFlight, maxInFlight atomic.Int32
	store.OnLoad(func(bool) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Reload())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, uint64(8), store.Reloads())
	assert.Equal(t, "EUR", store.Rates().Currency)
}

func TestRateStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	writeRates(t, path, ratesYAML)

	store, err := OpenRateStore(PricingConfig{RatesFile: path}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx, 10*time.Millisecond))

	writeRates(t, path, "currency: CHF\n"+ratesYAML[len("\ncurrency: EUR"):])

	assert.Eventually(t, func() bool {
		return store.Rates().Currency == "CHF"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRateStore_WatchNeedsFile(t *testing.T) {
	store := NewRateStore(pricing.DefaultRateTable(), nil)
	assert.Error(t, store.Watch(context.Background(), time.Millisecond))
}
