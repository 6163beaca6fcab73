package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each market's
// spot prices are stored at key "price:{marketID}" with fields "yes_bps",
// "no_bps", and "ts" (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. A zero ttl
// keeps entries until the next write.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func priceKey(marketID uint64) string {
	return "price:" + strconv.FormatUint(marketID, 10)
}

// SetPrices stores the latest spot prices for a market.
func (pc *PriceCache) SetPrices(ctx context.Context, marketID uint64, p domain.PricePair, ts time.Time) error {
	key := priceKey(marketID)
	fields := map[string]interface{}{
		"yes_bps": strconv.FormatUint(p.YesBps, 10),
		"no_bps":  strconv.FormatUint(p.NoBps, 10),
		"ts":      strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set prices %d: %w", marketID, err)
	}
	if pc.ttl > 0 {
		if err := pc.rdb.Expire(ctx, key, pc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire prices %d: %w", marketID, err)
		}
	}
	return nil
}

// GetPrices retrieves the latest cached spot prices for a market. It returns
// domain.ErrNotFound when no entry exists.
func (pc *PriceCache) GetPrices(ctx context.Context, marketID uint64) (domain.PricePair, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(marketID)).Result()
	if err != nil {
		return domain.PricePair{}, time.Time{}, fmt.Errorf("redis: get prices %d: %w", marketID, err)
	}
	if len(vals) == 0 {
		return domain.PricePair{}, time.Time{}, domain.ErrNotFound
	}

	yes, err := strconv.ParseUint(vals["yes_bps"], 10, 64)
	if err != nil {
		return domain.PricePair{}, time.Time{}, fmt.Errorf("redis: parse yes_bps for %d: %w", marketID, err)
	}
	no, err := strconv.ParseUint(vals["no_bps"], 10, 64)
	if err != nil {
		return domain.PricePair{}, time.Time{}, fmt.Errorf("redis: parse no_bps for %d: %w", marketID, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.PricePair{}, time.Time{}, fmt.Errorf("redis: parse ts for %d: %w", marketID, err)
	}

	return domain.PricePair{YesBps: yes, NoBps: no}, time.Unix(0, tsNano), nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
