package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SNIPER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present, silently ignore when missing.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SNIPER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "SNIPER_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "SNIPER_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "SNIPER_WALLET_KEY_PASSWORD")

	setStr(&cfg.Router.BaseURL, "SNIPER_ROUTER_BASE_URL")
	setStr(&cfg.Router.APIKey, "SNIPER_ROUTER_API_KEY")

	setStr(&cfg.Screener.BaseURL, "SNIPER_SCREENER_BASE_URL")
	setStr(&cfg.Screener.APIKey, "SNIPER_SCREENER_API_KEY")
	setStr(&cfg.Screener.WsURL, "SNIPER_SCREENER_WS_URL")

	setBool(&cfg.Postgres.Enabled, "SNIPER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SNIPER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SNIPER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SNIPER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SNIPER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SNIPER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SNIPER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SNIPER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SNIPER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SNIPER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SNIPER_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "SNIPER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SNIPER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SNIPER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SNIPER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SNIPER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SNIPER_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.SignalChannel, "SNIPER_REDIS_SIGNAL_CHANNEL")

	setStr(&cfg.S3.Endpoint, "SNIPER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SNIPER_S3_REGION")
	setStr(&cfg.S3.Bucket, "SNIPER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SNIPER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SNIPER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SNIPER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SNIPER_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Trading.QuoteToken, "SNIPER_TRADING_QUOTE_TOKEN")
	setInt(&cfg.Trading.MaxConcurrentTrades, "SNIPER_TRADING_MAX_CONCURRENT_TRADES")
	setFloat64(&cfg.Trading.MaxPositionSize, "SNIPER_TRADING_MAX_POSITION_SIZE")
	setFloat64(&cfg.Trading.TradeBudget, "SNIPER_TRADING_TRADE_BUDGET")
	setFloat64(&cfg.Trading.MaxDailyLoss, "SNIPER_TRADING_MAX_DAILY_LOSS")
	setFloat64(&cfg.Trading.MaxLossPercent, "SNIPER_TRADING_MAX_LOSS_PERCENT")
	setFloat64(&cfg.Trading.MinProfitPercent, "SNIPER_TRADING_MIN_PROFIT_PERCENT")
	setFloat64(&cfg.Trading.TrailingStopPercent, "SNIPER_TRADING_TRAILING_STOP_PERCENT")
	setDuration(&cfg.Trading.MaxHoldTime, "SNIPER_TRADING_MAX_HOLD_TIME")
	setFloat64(&cfg.Trading.RoundTripCost, "SNIPER_TRADING_ROUND_TRIP_COST")
	setFloat64(&cfg.Trading.MaxPriceImpactPercent, "SNIPER_TRADING_MAX_PRICE_IMPACT_PERCENT")
	setInt(&cfg.Trading.MaxSlippageBps, "SNIPER_TRADING_MAX_SLIPPAGE_BPS")
	setInt(&cfg.Trading.RetryAttempts, "SNIPER_TRADING_RETRY_ATTEMPTS")
	setDuration(&cfg.Trading.RetryBaseDelay, "SNIPER_TRADING_RETRY_BASE_DELAY")
	setDuration(&cfg.Trading.MonitorInterval, "SNIPER_TRADING_MONITOR_INTERVAL")
	setInt(&cfg.Trading.MaxConsecutiveFailures, "SNIPER_TRADING_MAX_CONSECUTIVE_FAILURES")

	setBool(&cfg.Archive.Enabled, "SNIPER_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Retention, "SNIPER_ARCHIVE_RETENTION")
	setDuration(&cfg.Archive.Interval, "SNIPER_ARCHIVE_INTERVAL")

	setStr(&cfg.Notify.TelegramToken, "SNIPER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SNIPER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SNIPER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SNIPER_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "SNIPER_MODE")
	setStr(&cfg.LogLevel, "SNIPER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
