package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.True(t, cfg.EnableCircuitBreaker)
	assert.Equal(t, time.Hour, cfg.MaxBlockAge)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ENABLE_CIRCUIT_BREAKER", "false")
	t.Setenv("OUTBOUND_RPS", "not-a-number")
	t.Setenv("EXPLORER_URL", "http://explorer.local/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.False(t, cfg.EnableCircuitBreaker)
	assert.Equal(t, 5, cfg.OutboundRPS)
	assert.Equal(t, "http://explorer.local/api", cfg.ExplorerURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
default_currency: GBP
max_price_change: 0.2
sign_reports: true
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, "GBP", cfg.DefaultCurrency)
	assert.Equal(t, 0.2, cfg.MaxPriceChange)
	assert.True(t, cfg.SignReports)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Defaults())
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
	_, err = LoadFile(path, Defaults())
	assert.ErrorContains(t, err, "failed to parse config file")
}
