package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeTOML(t, `
mode = "monitor"

[router]
base_url = "https://router.example.com"

[screener]
base_url = "https://screener.example.com"

[trading]
quote_token = "0x00000000000000000000000000000000000000aa"
max_hold_time = "45m"
max_concurrent_trades = 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 45*time.Minute, cfg.Trading.MaxHoldTime.Duration)
	assert.Equal(t, 5, cfg.Trading.MaxConcurrentTrades)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "signals:buy", cfg.Redis.SignalChannel)
	assert.Equal(t, 100, cfg.Trading.MaxSlippageBps)

	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeTOML(t, `
[redis]
addr = "file-redis:6379"
`)

	t.Setenv("SNIPER_REDIS_ADDR", "env-redis:6379")
	t.Setenv("SNIPER_TRADING_RETRY_BASE_DELAY", "2s")
	t.Setenv("SNIPER_NOTIFY_EVENTS", "exit_succeeded, exit_failed")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Trading.RetryBaseDelay.Duration)
	assert.Equal(t, []string{"exit_succeeded", "exit_failed"}, cfg.Notify.Events)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "yolo"
	cfg.Trading.MaxConcurrentTrades = 0
	// Router, screener and quote token left empty.

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "router: base_url is required")
	assert.Contains(t, err.Error(), "screener: base_url is required")
	assert.Contains(t, err.Error(), "trading: quote_token is required")
	assert.Contains(t, err.Error(), "max_concurrent_trades must be positive")
}

func TestValidateRequiresWalletForTradeMode(t *testing.T) {
	cfg := Defaults()
	cfg.Router.BaseURL = "https://router.example.com"
	cfg.Screener.BaseURL = "https://screener.example.com"
	cfg.Trading.QuoteToken = "0x00000000000000000000000000000000000000aa"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")

	// Monitor mode runs without a wallet.
	cfg.Mode = "monitor"
	require.NoError(t, cfg.Validate())
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Notify.TelegramToken = "bot-token"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// Original untouched.
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
}
