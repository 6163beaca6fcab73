// Package service orchestrates the market registry with the persistence,
// cache, and messaging layers. The registry remains the source of truth;
// everything the service does after a successful mutation is best-effort
// and never fails the caller's operation.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/market"
)

// EventChannel is the signal-bus channel market events are published to.
const EventChannel = "market.events"

// Archiver uploads a resolved market's event history to object storage.
type Archiver interface {
	ArchiveMarket(ctx context.Context, marketID uint64, force bool) (string, int64, error)
}

// EventNotifier pushes operator alerts for market events.
type EventNotifier interface {
	NotifyEvent(ctx context.Context, e domain.Event) error
}

// MarketService wraps the registry with snapshot persistence, event logging,
// price caching, and pub/sub notification. The store, cache, bus, and
// archiver dependencies are all optional; a nil dependency disables that
// side effect, which is how standalone mode runs.
type MarketService struct {
	registry *market.Registry
	markets  domain.MarketStore
	events   domain.EventStore
	prices   domain.PriceCache
	bus      domain.SignalBus
	archiver Archiver
	notifier EventNotifier
	now      func() time.Time
	logger   *slog.Logger
}

// Options carries the optional side-effect dependencies for a MarketService.
type Options struct {
	Markets  domain.MarketStore
	Events   domain.EventStore
	Prices   domain.PriceCache
	Bus      domain.SignalBus
	Archiver Archiver
	Notifier EventNotifier

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewMarketService creates a MarketService around the given registry.
func NewMarketService(registry *market.Registry, opts Options, logger *slog.Logger) *MarketService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MarketService{
		registry: registry,
		markets:  opts.Markets,
		events:   opts.Events,
		prices:   opts.Prices,
		bus:      opts.Bus,
		archiver: opts.Archiver,
		notifier: opts.Notifier,
		now:      now,
		logger:   logger.With(slog.String("component", "market_service")),
	}
}

// record runs the best-effort side effects after a successful registry
// mutation: append the event row, upsert the market snapshot, refresh the
// cached prices, and publish the event to the signal bus. Failures are
// logged and swallowed.
func (s *MarketService) record(ctx context.Context, e domain.Event) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()

	if s.events != nil {
		if err := s.events.Append(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "event append failed",
				slog.String("type", string(e.Type)),
				slog.Uint64("market_id", e.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.markets != nil {
		if m, err := s.registry.Market(e.MarketID); err == nil {
			if err := s.markets.Upsert(ctx, m); err != nil {
				s.logger.WarnContext(ctx, "snapshot upsert failed",
					slog.Uint64("market_id", e.MarketID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if s.prices != nil {
		if p, err := s.registry.SpotPrices(e.MarketID); err == nil {
			if err := s.prices.SetPrices(ctx, e.MarketID, p, e.CreatedAt); err != nil {
				s.logger.WarnContext(ctx, "price cache refresh failed",
					slog.Uint64("market_id", e.MarketID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyEvent(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "notify failed",
				slog.String("type", string(e.Type)),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(e)
		if err != nil {
			s.logger.WarnContext(ctx, "event marshal failed",
				slog.String("type", string(e.Type)),
				slog.String("error", err.Error()),
			)
			return
		}
		if err := s.bus.Publish(ctx, EventChannel, payload); err != nil {
			s.logger.WarnContext(ctx, "event publish failed",
				slog.String("type", string(e.Type)),
				slog.Uint64("market_id", e.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// CreateMarket creates a new market and records the creation event.
func (s *MarketService) CreateMarket(ctx context.Context, creator, question string, deadline time.Time) (uint64, error) {
	id, err := s.registry.CreateMarket(ctx, creator, question, deadline)
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventMarketCreated,
		MarketID: id,
		Actor:    creator,
	})
	return id, nil
}

// AddLiquidity deposits collateral into a market's pool.
func (s *MarketService) AddLiquidity(ctx context.Context, caller string, id uint64, amount uint64) error {
	if err := s.registry.AddLiquidity(ctx, caller, id, amount); err != nil {
		return err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventLiquidityAdded,
		MarketID: id,
		Actor:    caller,
		Amount:   amount,
	})
	return nil
}

// RemoveLiquidity burns a matched pair of outcome shares and returns the
// collateral paid out.
func (s *MarketService) RemoveLiquidity(ctx context.Context, caller string, id uint64, yesAmount, noAmount uint64) (uint64, error) {
	paid, err := s.registry.RemoveLiquidity(ctx, caller, id, yesAmount, noAmount)
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventLiquidityRemoved,
		MarketID: id,
		Actor:    caller,
		Amount:   paid,
	})
	return paid, nil
}

// BuyShares executes a trade against the market's pool.
func (s *MarketService) BuyShares(ctx context.Context, caller string, id uint64, isYes bool, amountIn, minSharesOut uint64) (domain.TradeResult, error) {
	res, err := s.registry.BuyShares(ctx, caller, id, isYes, amountIn, minSharesOut)
	if err != nil {
		return domain.TradeResult{}, err
	}
	s.record(ctx, domain.Event{
		Type:      domain.EventTradeExecuted,
		MarketID:  id,
		Actor:     caller,
		Amount:    amountIn,
		SharesOut: res.SharesOut,
		Fee:       res.Fee,
		IsYes:     isYes,
	})
	return res, nil
}

// ResolveMarket settles a market to the given outcome after its deadline.
func (s *MarketService) ResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error {
	if err := s.registry.ResolveMarket(ctx, caller, id, outcome); err != nil {
		return err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventMarketResolved,
		MarketID: id,
		Actor:    caller,
		Outcome:  outcome,
	})
	return nil
}

// ForceResolveMarket settles a market before its deadline.
func (s *MarketService) ForceResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error {
	if err := s.registry.ForceResolveMarket(ctx, caller, id, outcome); err != nil {
		return err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventMarketResolved,
		MarketID: id,
		Actor:    caller,
		Outcome:  outcome,
	})
	return nil
}

// ClaimWinnings pays out a holder's winning (or refundable) shares.
func (s *MarketService) ClaimWinnings(ctx context.Context, caller string, id uint64) (uint64, error) {
	payout, err := s.registry.ClaimWinnings(ctx, caller, id)
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventWinningsClaimed,
		MarketID: id,
		Actor:    caller,
		Amount:   payout,
	})
	return payout, nil
}

// ClaimFees pays out a liquidity provider's accrued fee share.
func (s *MarketService) ClaimFees(ctx context.Context, caller string, id uint64) (uint64, error) {
	paid, err := s.registry.ClaimFees(ctx, caller, id)
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventFeesClaimed,
		MarketID: id,
		Actor:    caller,
		Amount:   paid,
	})
	return paid, nil
}

// WithdrawResidualFees sweeps unclaimable residual fees from a drained,
// resolved market. Recorded as a fee-claim event by the owner.
func (s *MarketService) WithdrawResidualFees(ctx context.Context, caller string, id uint64) (uint64, error) {
	paid, err := s.registry.WithdrawResidualFees(ctx, caller, id)
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.Event{
		Type:     domain.EventFeesClaimed,
		MarketID: id,
		Actor:    caller,
		Amount:   paid,
	})
	return paid, nil
}

// ArchiveMarket uploads a resolved market's event history to object storage.
func (s *MarketService) ArchiveMarket(ctx context.Context, id uint64, force bool) (string, int64, error) {
	if s.archiver == nil {
		return "", 0, fmt.Errorf("service: archiver not configured: %w", domain.ErrNotFound)
	}
	return s.archiver.ArchiveMarket(ctx, id, force)
}

// Market returns the live state of a single market.
func (s *MarketService) Market(id uint64) (domain.Market, error) {
	return s.registry.Market(id)
}

// Markets returns the live state of every market.
func (s *MarketService) Markets() []domain.Market {
	return s.registry.Markets()
}

// Quote prices a hypothetical trade without executing it.
func (s *MarketService) Quote(id uint64, isYes bool, amountIn uint64) (domain.TradeResult, error) {
	return s.registry.Quote(id, isYes, amountIn)
}

// SpotPrices returns a market's current implied probabilities, preferring
// the cache when one is configured and falling back to the registry.
func (s *MarketService) SpotPrices(ctx context.Context, id uint64) (domain.PricePair, error) {
	if s.prices != nil {
		if p, _, err := s.prices.GetPrices(ctx, id); err == nil {
			return p, nil
		}
	}
	return s.registry.SpotPrices(id)
}

// ShareBalance returns a holder's position in a market.
func (s *MarketService) ShareBalance(id uint64, holder string) (domain.SharePosition, error) {
	return s.registry.ShareBalance(id, holder)
}

// ClaimableFees returns the fee amount a holder could claim right now.
func (s *MarketService) ClaimableFees(id uint64, holder string) (uint64, error) {
	return s.registry.ClaimableFees(id, holder)
}

// Events returns a market's recorded event history. Requires the event
// store; standalone mode returns an empty slice.
func (s *MarketService) Events(ctx context.Context, id uint64, opts domain.ListOpts) ([]domain.Event, error) {
	if s.events == nil {
		return nil, nil
	}
	return s.events.ListByMarket(ctx, id, opts)
}

// SetResolver changes the resolver identity. Owner only.
func (s *MarketService) SetResolver(caller, resolver string) error {
	return s.registry.SetResolver(caller, resolver)
}

// SetFeeRate changes the trading fee rate. Owner only.
func (s *MarketService) SetFeeRate(caller string, bps uint64) error {
	return s.registry.SetFeeRate(caller, bps)
}
