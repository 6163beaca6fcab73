// Package config defines the top-level configuration for the prediction
// market daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PREDICTAMM_* environment
// variables.
type Config struct {
	Core     CoreConfig     `toml:"core"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// CoreConfig holds the market registry's operating parameters.
type CoreConfig struct {
	// Resolver is the identity authorized to settle markets.
	Resolver string `toml:"resolver"`
	// Owner is the administrative identity for setters and fee sweeps.
	Owner string `toml:"owner"`
	// FeeRateBps is the trading fee in basis points (max 500).
	FeeRateBps uint64 `toml:"fee_rate_bps"`
	// MinLiquidity is the pool floor below which trading is refused.
	MinLiquidity uint64 `toml:"min_liquidity"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// CacheTTLMinutes bounds how long cached prices stay fresh. Zero keeps
	// entries until the next write.
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// S3Config holds S3-compatible object storage parameters for the event
// archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP API server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit caps requests per client IP per second. Zero disables rate
	// limiting. Only enforced in serve mode where Redis is available.
	RateLimit int `toml:"rate_limit"`
}

// NotifyConfig holds operator alert channel parameters. A channel is
// enabled by filling in its credentials; Events filters which event types
// are forwarded (empty forwards all).
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// validModes lists the supported operating modes. "serve" runs the full
// stack (postgres, redis, HTTP API); "standalone" runs the core in memory
// with the HTTP API only.
var validModes = []string{"serve", "standalone"}

// Validate checks the configuration for internal consistency. It should be
// called after Load.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Mode)
	ok := false
	for _, m := range validModes {
		if mode == m {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("config: unsupported mode %q (want one of %s)", c.Mode, strings.Join(validModes, ", "))
	}

	if c.Core.Resolver == "" {
		return fmt.Errorf("config: core.resolver is required")
	}
	if c.Core.Owner == "" {
		return fmt.Errorf("config: core.owner is required")
	}
	if c.Core.FeeRateBps > 500 {
		return fmt.Errorf("config: core.fee_rate_bps %d exceeds maximum 500", c.Core.FeeRateBps)
	}

	if mode == "serve" {
		if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			return fmt.Errorf("config: postgres connection parameters are required in serve mode")
		}
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required in serve mode")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	return nil
}
