package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PREDICTAMM_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PREDICTAMM_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Core ──
	setStr(&cfg.Core.Resolver, "PREDICTAMM_CORE_RESOLVER")
	setStr(&cfg.Core.Owner, "PREDICTAMM_CORE_OWNER")
	setUint64(&cfg.Core.FeeRateBps, "PREDICTAMM_CORE_FEE_RATE_BPS")
	setUint64(&cfg.Core.MinLiquidity, "PREDICTAMM_CORE_MIN_LIQUIDITY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "PREDICTAMM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PREDICTAMM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PREDICTAMM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PREDICTAMM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PREDICTAMM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PREDICTAMM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PREDICTAMM_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PREDICTAMM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PREDICTAMM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PREDICTAMM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PREDICTAMM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PREDICTAMM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PREDICTAMM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PREDICTAMM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PREDICTAMM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PREDICTAMM_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "PREDICTAMM_REDIS_CACHE_TTL_MINUTES")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PREDICTAMM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PREDICTAMM_S3_REGION")
	setStr(&cfg.S3.Bucket, "PREDICTAMM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PREDICTAMM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PREDICTAMM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PREDICTAMM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PREDICTAMM_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PREDICTAMM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PREDICTAMM_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "PREDICTAMM_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "PREDICTAMM_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "PREDICTAMM_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PREDICTAMM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PREDICTAMM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PREDICTAMM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PREDICTAMM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PREDICTAMM_MODE")
	setStr(&cfg.LogLevel, "PREDICTAMM_LOG_LEVEL")
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

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
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

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
