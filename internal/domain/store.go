package domain

import (
	"context"
	"io"
	"time"
)

// SettlementAsset is the external fungible balance the market denominates
// in. Implementations must do exact integer accounting: a failed transfer
// returns an error and moves nothing.
type SettlementAsset interface {
	// TransferIn pulls amount from the holder into the market's custody.
	TransferIn(ctx context.Context, from string, amount uint64) error
	// TransferOut pays amount from the market's custody to the holder.
	TransferOut(ctx context.Context, to string, amount uint64) error
	// BalanceOf reports the holder's free balance.
	BalanceOf(ctx context.Context, holder string) (uint64, error)
}

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore persists market snapshots for off-core reads. The registry
// remains the source of truth; the store is an audit/read replica.
type MarketStore interface {
	Upsert(ctx context.Context, m Market) error
	GetByID(ctx context.Context, id uint64) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// EventStore persists the append-only market event log.
type EventStore interface {
	Append(ctx context.Context, e Event) error
	ListByMarket(ctx context.Context, marketID uint64, opts ListOpts) ([]Event, error)
}

// PriceCache caches the latest spot prices per market.
type PriceCache interface {
	SetPrices(ctx context.Context, marketID uint64, p PricePair, ts time.Time) error
	GetPrices(ctx context.Context, marketID uint64) (PricePair, time.Time, error)
}

// SignalBus publishes market events to external consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter uploads archive objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	// Allow reports whether a request for the key is permitted under the
	// limit for the window, counting it when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
