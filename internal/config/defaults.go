package config

// Defaults returns the built-in configuration that Load merges the TOML
// file on top of.
func Defaults() Config {
	return Config{
		Core: CoreConfig{
			FeeRateBps:   200,
			MinLiquidity: 100,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 8,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 8,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "standalone",
		LogLevel: "info",
	}
}
