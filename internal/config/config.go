// Package config defines the top-level configuration for the sniper bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SNIPER_* environment variables.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Router   RouterConfig   `toml:"router"`
	Screener ScreenerConfig `toml:"screener"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Trading  TradingConfig  `toml:"trading"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig holds the EVM wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// RouterConfig holds the DEX aggregator API parameters.
type RouterConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// ScreenerConfig holds the market data oracle API parameters.
type ScreenerConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	WsURL   string `toml:"ws_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the signal bus.
type RedisConfig struct {
	Addr          string `toml:"addr"`
	Password      string `toml:"password"`
	DB            int    `toml:"db"`
	PoolSize      int    `toml:"pool_size"`
	MaxRetries    int    `toml:"max_retries"`
	TLSEnabled    bool   `toml:"tls_enabled"`
	SignalChannel string `toml:"signal_channel"`
}

// S3Config holds S3-compatible object storage parameters for the archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// TradingConfig holds the lifecycle, risk, and exit-policy tunables.
type TradingConfig struct {
	QuoteToken string `toml:"quote_token"`

	MaxConcurrentTrades int     `toml:"max_concurrent_trades"`
	MaxPositionSize     float64 `toml:"max_position_size"`
	TradeBudget         float64 `toml:"trade_budget"`
	MaxDailyLoss        float64 `toml:"max_daily_loss"`

	MaxLossPercent        float64  `toml:"max_loss_percent"`
	MinProfitPercent      float64  `toml:"min_profit_percent"`
	TrailingStopPercent   float64  `toml:"trailing_stop_percent"`
	MaxHoldTime           duration `toml:"max_hold_time"`
	RoundTripCost         float64  `toml:"round_trip_cost"`
	MaxPriceImpactPercent float64  `toml:"max_price_impact_percent"`

	MaxSlippageBps int      `toml:"max_slippage_bps"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryBaseDelay duration `toml:"retry_base_delay"`

	MonitorInterval        duration `toml:"monitor_interval"`
	MaxConsecutiveFailures int      `toml:"max_consecutive_failures"`
}

// ArchiveConfig holds the trade-history archiver parameters.
type ArchiveConfig struct {
	Enabled   bool     `toml:"enabled"`
	Retention duration `toml:"retention"`
	Interval  duration `toml:"interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Enabled:       true,
			Host:          "localhost",
			Port:          5432,
			Database:      "sniper",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			PoolSize:      20,
			MaxRetries:    3,
			SignalChannel: "signals:buy",
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "sniper-history",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Trading: TradingConfig{
			MaxConcurrentTrades:    3,
			MaxPositionSize:        500,
			TradeBudget:            2000,
			MaxDailyLoss:           200,
			MaxLossPercent:         0.05,
			MinProfitPercent:       0.10,
			TrailingStopPercent:    0.03,
			MaxHoldTime:            duration{30 * time.Minute},
			RoundTripCost:          1.0,
			MaxPriceImpactPercent:  0.05,
			MaxSlippageBps:         100,
			RetryAttempts:          3,
			RetryBaseDelay:         duration{500 * time.Millisecond},
			MonitorInterval:        duration{10 * time.Second},
			MaxConsecutiveFailures: 5,
		},
		Archive: ArchiveConfig{
			Enabled:   false,
			Retention: duration{90 * 24 * time.Hour},
			Interval:  duration{24 * time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"entry_succeeded", "exit_succeeded", "exit_failed", "entry_failed"},
		},
		Mode:     "trade",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode. In monitor mode
// the bot evaluates exits but never submits swaps.
var validModes = map[string]bool{
	"trade":   true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.ToLower(c.Mode) == "trade" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode trade")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	if c.Router.BaseURL == "" {
		errs = append(errs, "router: base_url is required")
	}
	if c.Screener.BaseURL == "" {
		errs = append(errs, "screener: base_url is required")
	}
	if c.Trading.QuoteToken == "" {
		errs = append(errs, "trading: quote_token is required")
	}
	if c.Trading.MaxConcurrentTrades <= 0 {
		errs = append(errs, "trading: max_concurrent_trades must be positive")
	}
	if c.Trading.MaxPositionSize <= 0 {
		errs = append(errs, "trading: max_position_size must be positive")
	}
	if c.Trading.TradeBudget <= 0 {
		errs = append(errs, "trading: trade_budget must be positive")
	}
	if c.Trading.MaxHoldTime.Duration <= 0 {
		errs = append(errs, "trading: max_hold_time must be positive")
	}
	if c.Trading.MonitorInterval.Duration <= 0 {
		errs = append(errs, "trading: monitor_interval must be positive")
	}
	if c.Trading.MaxSlippageBps <= 0 {
		errs = append(errs, "trading: max_slippage_bps must be positive")
	}
	if c.Trading.RetryAttempts <= 0 {
		errs = append(errs, "trading: retry_attempts must be positive")
	}
	if c.Archive.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "archive: s3 bucket is required when archiving is enabled")
		}
		if c.Archive.Retention.Duration <= 0 {
			errs = append(errs, "archive: retention must be positive")
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "archive: postgres must be enabled when archiving is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
