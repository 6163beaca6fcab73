package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predictamm/internal/asset"
	s3blob "github.com/alanyoungcy/predictamm/internal/blob/s3"
	"github.com/alanyoungcy/predictamm/internal/cache/redis"
	"github.com/alanyoungcy/predictamm/internal/config"
	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/market"
	"github.com/alanyoungcy/predictamm/internal/notify"
	"github.com/alanyoungcy/predictamm/internal/server/handler"
	"github.com/alanyoungcy/predictamm/internal/service"
	"github.com/alanyoungcy/predictamm/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Core
	Bank     *asset.Bank
	Registry *market.Registry
	Service  *service.MarketService

	// Stores (serve mode only)
	MarketStore domain.MarketStore
	EventStore  domain.EventStore

	// Caches and messaging (serve mode only)
	PriceCache  domain.PriceCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// Blob storage (serve mode with an S3 bucket configured)
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Operator alerts
	Notifier *notify.Notifier

	// Health probes keyed by dependency name.
	Health map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown. Standalone mode wires only the in-memory core; serve
// mode adds Postgres, Redis, and optionally S3.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Bank:   asset.NewBank(),
		Health: make(map[string]handler.Pinger),
	}
	deps.Registry = market.NewRegistry(deps.Bank, market.Config{
		Resolver:     cfg.Core.Resolver,
		Owner:        cfg.Core.Owner,
		FeeRateBps:   cfg.Core.FeeRateBps,
		MinLiquidity: cfg.Core.MinLiquidity,
	}, logger)

	svcOpts := service.Options{}

	if cfg.Mode == "serve" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		deps.Health["postgres"] = pgClient

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.EventStore = postgres.NewEventStore(pool)
		svcOpts.Markets = deps.MarketStore
		svcOpts.Events = deps.EventStore

		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Health["redis"] = redisClient

		cacheTTL := time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		deps.PriceCache = redis.NewPriceCache(redisClient, cacheTTL)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		svcOpts.Prices = deps.PriceCache
		svcOpts.Bus = deps.SignalBus

		// S3 is optional even in serve mode; a configured bucket enables
		// the archiver.
		if cfg.S3.Bucket != "" {
			s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
				Endpoint:       cfg.S3.Endpoint,
				Region:         cfg.S3.Region,
				Bucket:         cfg.S3.Bucket,
				AccessKey:      cfg.S3.AccessKey,
				SecretKey:      cfg.S3.SecretKey,
				UseSSL:         cfg.S3.UseSSL,
				ForcePathStyle: cfg.S3.ForcePathStyle,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: s3: %w", err)
			}
			closers = append(closers, func() { _ = s3Client.Close() })
			deps.Health["s3"] = s3Client

			deps.BlobWriter = s3blob.NewWriter(s3Client)
			deps.Archiver = s3blob.NewArchiver(
				deps.Registry,
				deps.EventStore,
				deps.BlobWriter,
				s3blob.NewReader(s3Client),
				logger,
			)
			svcOpts.Archiver = deps.Archiver
		}
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
		svcOpts.Notifier = deps.Notifier
	}

	deps.Service = service.NewMarketService(deps.Registry, svcOpts, logger)

	return deps, cleanup, nil
}
