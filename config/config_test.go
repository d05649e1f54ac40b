package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitySim/internal/adapters/logger"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TICKERS", "AAPL,MSFT")
	t.Setenv("START_DATE", "2017-01-01")
	t.Setenv("END_DATE", "2017-12-31")
}

func TestLoadConfig_FromEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("ORDER_QTY", "25")
	t.Setenv("STRATEGY", "sma_crossover")
	t.Setenv("SHORT_MA_PERIOD", "5")
	t.Setenv("LONG_MA_PERIOD", "15")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, 50000.0, cfg.InitialCapital)
	assert.Equal(t, 25.0, cfg.OrderQty)
	assert.Equal(t, "sma_crossover", cfg.Strategy)
	assert.Equal(t, 5, cfg.ShortMAPeriod)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)

	// Defaults.
	assert.Equal(t, "csv", cfg.DataSource)
	assert.Equal(t, "nyse", cfg.Calendar)
	assert.False(t, cfg.RaiseOnWarnings)
}

func TestLoadConfig_CollectsValidationErrors(t *testing.T) {
	t.Setenv("TICKERS", "")
	t.Setenv("START_DATE", "not-a-date")
	t.Setenv("END_DATE", "")
	t.Setenv("ORDER_QTY", "-5")
	t.Setenv("STRATEGY", "martingale")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICKERS")
	assert.Contains(t, err.Error(), "START_DATE")
	assert.Contains(t, err.Error(), "END_DATE")
	assert.Contains(t, err.Error(), "ORDER_QTY")
	assert.Contains(t, err.Error(), "STRATEGY")
}

func TestLoadConfig_DateOrdering(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("START_DATE", "2017-12-31")
	t.Setenv("END_DATE", "2017-01-01")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "START_DATE must be before END_DATE")
}

func TestLoadConfig_YAMLOverridesEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("INITIAL_CAPITAL", "50000")

	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tickers: [BTCUSDT]
initial_capital: 75000
data_source: binance
calendar: always
interval: 1h
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Tickers)
	assert.Equal(t, 75000.0, cfg.InitialCapital)
	assert.Equal(t, "binance", cfg.DataSource)
	assert.Equal(t, "always", cfg.Calendar)
	assert.Equal(t, "1h", cfg.Interval)

	// Env values not overridden by the file survive.
	assert.Equal(t, "2017-01-01", cfg.StartDateStr)
}

func TestLoadConfig_MissingYAMLFile(t *testing.T) {
	setBaseEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
