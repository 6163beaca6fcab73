// Package market implements the prediction-market core: the market registry
// and its lifecycle, outcome-share accounting, constant-product trading,
// liquidity-provider fee claiming, and resolver-gated settlement.
//
// Every public operation is logically atomic: preconditions are checked and
// all numeric results computed before any state is touched, funds are pulled
// in before mutation so a failed pull aborts cleanly, and funds are paid out
// only after all internal state is updated. A per-market call guard rejects
// nested calls made during external transfers.
package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/engine"
)

const (
	// MaxFeeRateBps caps the trading fee at 5%.
	MaxFeeRateBps = 500

	// DefaultFeeRateBps is the trading fee applied when none is configured.
	DefaultFeeRateBps = 200

	// DefaultMinLiquidity is the pool floor below which trading is refused,
	// keeping the constant-product division away from degenerate reserves.
	DefaultMinLiquidity = 100

	// maxDeadlineAhead bounds how far in the future a market may resolve.
	maxDeadlineAhead = 365 * 24 * time.Hour
)

// Config carries the registry's operating parameters.
type Config struct {
	// Resolver is the only identity allowed to settle markets.
	Resolver string
	// Owner is the administrative identity for setters and fee sweeps.
	Owner string
	// FeeRateBps is the trading fee in basis points (0 keeps the default).
	FeeRateBps uint64
	// MinLiquidity overrides the trading pool floor (0 keeps the default).
	MinLiquidity uint64
	// Now overrides the clock, used by tests. Defaults to time.Now.
	Now func() time.Time
}

// marketState bundles a market record with its share and fee ledgers and
// the per-market call guard. Cross-component references are by market id
// only; the state lives in the registry's arena.
type marketState struct {
	guard  callGuard
	mu     sync.Mutex
	m      domain.Market
	shares *shareLedger
	fees   *feeLedger
}

// Registry owns the arena of market records and orchestrates all mutation.
// Market ids are dense, zero-based indices into the arena; records are
// never deleted.
type Registry struct {
	mu      sync.RWMutex
	markets []*marketState

	asset  domain.SettlementAsset
	logger *slog.Logger

	resolver     string
	owner        string
	feeRateBps   uint64
	minLiquidity uint64
	now          func() time.Time
}

// NewRegistry creates an empty registry operating against the given
// settlement asset.
func NewRegistry(asset domain.SettlementAsset, cfg Config, logger *slog.Logger) *Registry {
	if cfg.FeeRateBps == 0 {
		cfg.FeeRateBps = DefaultFeeRateBps
	}
	if cfg.MinLiquidity == 0 {
		cfg.MinLiquidity = DefaultMinLiquidity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		asset:        asset,
		logger:       logger.With(slog.String("component", "registry")),
		resolver:     cfg.Resolver,
		owner:        cfg.Owner,
		feeRateBps:   cfg.FeeRateBps,
		minLiquidity: cfg.MinLiquidity,
		now:          cfg.Now,
	}
}

// lookup fetches a market's state by id.
func (r *Registry) lookup(id uint64) (*marketState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id >= uint64(len(r.markets)) {
		return nil, domain.ErrMarketNotFound
	}
	return r.markets[id], nil
}

// enter acquires the market's call guard, rejecting reentrant calls.
func (r *Registry) enter(id uint64) (*marketState, error) {
	st, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	if !st.guard.acquire() {
		return nil, domain.ErrReentrantCall
	}
	return st, nil
}

// CreateMarket allocates a new Active market and returns its id. Ids are
// assigned densely from zero in creation order.
func (r *Registry) CreateMarket(ctx context.Context, creator, question string, deadline time.Time) (uint64, error) {
	if question == "" {
		return 0, domain.ErrInvalidQuestion
	}
	now := r.now()
	if !deadline.After(now) || deadline.After(now.Add(maxDeadlineAhead)) {
		return 0, domain.ErrInvalidDeadline
	}

	r.mu.Lock()
	id := uint64(len(r.markets))
	r.markets = append(r.markets, &marketState{
		m: domain.Market{
			ID:                 id,
			Question:           question,
			Creator:            creator,
			ResolutionDeadline: deadline,
			CreatedAt:          now,
			Status:             domain.MarketStatusActive,
			Outcome:            domain.OutcomeUnresolved,
		},
		shares: newShareLedger(),
		fees:   newFeeLedger(),
	})
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "market created",
		slog.Uint64("market_id", id),
		slog.String("creator", creator),
		slog.Time("deadline", deadline),
	)
	return id, nil
}

// AddLiquidity pulls amount of settlement asset from the caller and mints a
// matched pair of amount Yes and amount No shares to them, growing both
// reserves and the liquidity pool by the same amount.
func (r *Registry) AddLiquidity(ctx context.Context, caller string, id uint64, amount uint64) error {
	if amount == 0 {
		return domain.ErrZeroAmount
	}
	st, err := r.enter(id)
	if err != nil {
		return err
	}
	defer st.guard.release()

	st.mu.Lock()
	if st.m.Status != domain.MarketStatusActive {
		st.mu.Unlock()
		return domain.ErrMarketNotActive
	}
	if !r.now().Before(st.m.ResolutionDeadline) {
		st.mu.Unlock()
		return domain.ErrMarketExpired
	}
	newYes, err := engine.CheckedAdd(st.m.TotalYesShares, amount)
	if err == nil {
		_, err = engine.CheckedAdd(st.m.TotalNoShares, amount)
	}
	if err == nil {
		_, err = engine.CheckedAdd(st.m.LiquidityPool, amount)
	}
	st.mu.Unlock()
	if err != nil {
		return err
	}

	// Pull funds before mutating so a failed transfer aborts cleanly.
	if err := r.asset.TransferIn(ctx, caller, amount); err != nil {
		return err
	}

	st.mu.Lock()
	st.m.TotalYesShares = newYes
	st.m.TotalNoShares += amount
	st.m.LiquidityPool += amount
	_ = st.shares.mint(sideYes, caller, amount)
	_ = st.shares.mint(sideNo, caller, amount)
	st.mu.Unlock()

	r.logger.InfoContext(ctx, "liquidity added",
		slog.Uint64("market_id", id),
		slog.String("provider", caller),
		slog.Uint64("amount", amount),
	)
	return nil
}

// RemoveLiquidity burns the matched quantity min(yesAmount, noAmount) from
// both of the caller's sides and pays the same quantity of settlement asset
// back. Unmatched excess is not redeemable here. Removal stays available
// after resolution.
func (r *Registry) RemoveLiquidity(ctx context.Context, caller string, id uint64, yesAmount, noAmount uint64) (uint64, error) {
	st, err := r.enter(id)
	if err != nil {
		return 0, err
	}
	defer st.guard.release()

	matched := yesAmount
	if noAmount < matched {
		matched = noAmount
	}
	if matched == 0 {
		return 0, domain.ErrNoMatchingPair
	}

	st.mu.Lock()
	if st.m.Status != domain.MarketStatusActive && st.m.Status != domain.MarketStatusResolved {
		st.mu.Unlock()
		return 0, domain.ErrMarketNotActive
	}
	if st.shares.balance(sideYes, caller) < matched || st.shares.balance(sideNo, caller) < matched {
		st.mu.Unlock()
		return 0, domain.ErrInsufficientShares
	}
	if st.m.TotalYesShares < matched || st.m.TotalNoShares < matched || st.m.LiquidityPool < matched {
		st.mu.Unlock()
		return 0, domain.ErrAmountOverflow
	}
	_ = st.shares.burn(sideYes, caller, matched)
	_ = st.shares.burn(sideNo, caller, matched)
	st.m.TotalYesShares -= matched
	st.m.TotalNoShares -= matched
	st.m.LiquidityPool -= matched
	st.mu.Unlock()

	// State is fully updated before funds leave; roll back if the payout
	// itself fails so no value is stranded.
	if err := r.asset.TransferOut(ctx, caller, matched); err != nil {
		st.mu.Lock()
		_ = st.shares.mint(sideYes, caller, matched)
		_ = st.shares.mint(sideNo, caller, matched)
		st.m.TotalYesShares += matched
		st.m.TotalNoShares += matched
		st.m.LiquidityPool += matched
		st.mu.Unlock()
		return 0, err
	}

	r.logger.InfoContext(ctx, "liquidity removed",
		slog.Uint64("market_id", id),
		slog.String("provider", caller),
		slog.Uint64("amount", matched),
	)
	return matched, nil
}

// BuyShares swaps amountIn of settlement asset for outcome shares of the
// chosen side. The fee is skimmed into feesCollected, the net input grows
// the bought reserve and the pool, and the opposite reserve shrinks by the
// constant-product output, which is minted to the caller.
func (r *Registry) BuyShares(ctx context.Context, caller string, id uint64, isYes bool, amountIn, minSharesOut uint64) (domain.TradeResult, error) {
	if amountIn == 0 {
		return domain.TradeResult{}, domain.ErrZeroAmount
	}
	st, err := r.enter(id)
	if err != nil {
		return domain.TradeResult{}, err
	}
	defer st.guard.release()

	feeRate := r.feeRate()

	st.mu.Lock()
	if st.m.Status != domain.MarketStatusActive {
		st.mu.Unlock()
		return domain.TradeResult{}, domain.ErrMarketNotActive
	}
	if !r.now().Before(st.m.ResolutionDeadline) {
		st.mu.Unlock()
		return domain.TradeResult{}, domain.ErrMarketExpired
	}
	if st.m.LiquidityPool < r.minLiquidity {
		st.mu.Unlock()
		return domain.TradeResult{}, domain.ErrInsufficientLiquidity
	}

	res, err := engine.Quote(st.m.TotalYesShares, st.m.TotalNoShares, isYes, amountIn, feeRate)
	if err != nil {
		st.mu.Unlock()
		return domain.TradeResult{}, err
	}
	if res.SharesOut == 0 {
		st.mu.Unlock()
		return domain.TradeResult{}, domain.ErrZeroOutput
	}
	if res.SharesOut < minSharesOut {
		st.mu.Unlock()
		return domain.TradeResult{}, domain.ErrSlippageExceeded
	}

	// Precompute the post-trade figures so overflow aborts before funds move.
	newFees, err := engine.CheckedAdd(st.m.FeesCollected, res.Fee)
	if err == nil {
		_, err = engine.CheckedAdd(st.m.LiquidityPool, res.NetIn)
	}
	st.mu.Unlock()
	if err != nil {
		return domain.TradeResult{}, err
	}

	if err := r.asset.TransferIn(ctx, caller, amountIn); err != nil {
		return domain.TradeResult{}, err
	}

	st.mu.Lock()
	st.m.FeesCollected = newFees
	st.m.LiquidityPool += res.NetIn
	if isYes {
		st.m.TotalYesShares += res.NetIn
		st.m.TotalNoShares -= res.SharesOut
		_ = st.shares.mint(sideYes, caller, res.SharesOut)
	} else {
		st.m.TotalNoShares += res.NetIn
		st.m.TotalYesShares -= res.SharesOut
		_ = st.shares.mint(sideNo, caller, res.SharesOut)
	}
	st.mu.Unlock()

	r.logger.InfoContext(ctx, "trade executed",
		slog.Uint64("market_id", id),
		slog.String("trader", caller),
		slog.Bool("is_yes", isYes),
		slog.Uint64("amount_in", amountIn),
		slog.Uint64("shares_out", res.SharesOut),
		slog.Uint64("fee", res.Fee),
	)
	return res, nil
}

// Quote previews a buy without side effects, mirroring BuyShares exactly.
func (r *Registry) Quote(id uint64, isYes bool, amountIn uint64) (domain.TradeResult, error) {
	st, err := r.lookup(id)
	if err != nil {
		return domain.TradeResult{}, err
	}
	st.mu.Lock()
	yes, no := st.m.TotalYesShares, st.m.TotalNoShares
	st.mu.Unlock()
	return engine.Quote(yes, no, isYes, amountIn, r.feeRate())
}

// SpotPrices returns the current spot prices of both sides in basis points.
func (r *Registry) SpotPrices(id uint64) (domain.PricePair, error) {
	st, err := r.lookup(id)
	if err != nil {
		return domain.PricePair{}, err
	}
	st.mu.Lock()
	yes, no := st.m.TotalYesShares, st.m.TotalNoShares
	st.mu.Unlock()
	return engine.SpotPrices(yes, no)
}

// Market returns a snapshot of the market record.
func (r *Registry) Market(id uint64) (domain.Market, error) {
	st, err := r.lookup(id)
	if err != nil {
		return domain.Market{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.m, nil
}

// Markets returns snapshots of all markets in id order.
func (r *Registry) Markets() []domain.Market {
	r.mu.RLock()
	states := make([]*marketState, len(r.markets))
	copy(states, r.markets)
	r.mu.RUnlock()

	out := make([]domain.Market, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		out = append(out, st.m)
		st.mu.Unlock()
	}
	return out
}

// Count returns the number of markets ever created.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.markets))
}

// ShareBalance returns the holder's outcome-share balances for a market.
func (r *Registry) ShareBalance(id uint64, holder string) (domain.SharePosition, error) {
	st, err := r.lookup(id)
	if err != nil {
		return domain.SharePosition{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return domain.SharePosition{
		MarketID: id,
		Holder:   holder,
		Yes:      st.shares.balance(sideYes, holder),
		No:       st.shares.balance(sideNo, holder),
	}, nil
}

// ClaimableFees is the pure query counterpart of ClaimFees.
func (r *Registry) ClaimableFees(id uint64, holder string) (uint64, error) {
	st, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	delta, _, err := st.fees.claimable(holder,
		st.shares.contribution(holder), st.m.FeesCollected, st.m.LiquidityPool)
	return delta, err
}

// ClaimFees pays the caller their pro-rata share of collected fees, measured
// by their matched-pair balance against the liquidity pool, and resyncs
// their watermark to the computed cumulative share. Available while Active
// and after resolution.
func (r *Registry) ClaimFees(ctx context.Context, caller string, id uint64) (uint64, error) {
	st, err := r.enter(id)
	if err != nil {
		return 0, err
	}
	defer st.guard.release()

	st.mu.Lock()
	contribution := st.shares.contribution(caller)
	if contribution == 0 {
		st.mu.Unlock()
		return 0, domain.ErrNoLiquidityProvided
	}
	if st.m.LiquidityPool == 0 {
		st.mu.Unlock()
		return 0, domain.ErrNothingToClaim
	}
	delta, totalShare, err := st.fees.claimable(caller, contribution, st.m.FeesCollected, st.m.LiquidityPool)
	if err != nil {
		st.mu.Unlock()
		return 0, err
	}
	if delta == 0 {
		st.mu.Unlock()
		return 0, domain.ErrNothingToClaim
	}
	paid, remaining := settleClaim(delta, st.m.FeesCollected)
	prevWatermark := st.fees.claimed[caller]
	prevFees := st.m.FeesCollected
	st.fees.record(caller, totalShare)
	st.m.FeesCollected = remaining
	st.mu.Unlock()

	if err := r.asset.TransferOut(ctx, caller, paid); err != nil {
		st.mu.Lock()
		st.fees.record(caller, prevWatermark)
		st.m.FeesCollected = prevFees
		st.mu.Unlock()
		return 0, err
	}

	r.logger.InfoContext(ctx, "lp fees claimed",
		slog.Uint64("market_id", id),
		slog.String("provider", caller),
		slog.Uint64("amount", paid),
	)
	return paid, nil
}

// feeRate reads the configured fee rate.
func (r *Registry) feeRate() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeRateBps
}

// SetResolver replaces the resolver identity. Owner only.
func (r *Registry) SetResolver(caller, resolver string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return domain.ErrNotOwner
	}
	r.resolver = resolver
	return nil
}

// SetFeeRate replaces the trading fee rate. Owner only, capped at 5%.
func (r *Registry) SetFeeRate(caller string, bps uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return domain.ErrNotOwner
	}
	if bps > MaxFeeRateBps {
		return domain.ErrFeeRateTooHigh
	}
	r.feeRateBps = bps
	return nil
}

// WithdrawResidualFees sweeps the rounding dust left in feesCollected after
// every provider has claimed, once a market is resolved and its liquidity
// pool is fully withdrawn. Owner only.
func (r *Registry) WithdrawResidualFees(ctx context.Context, caller string, id uint64) (uint64, error) {
	r.mu.RLock()
	owner := r.owner
	r.mu.RUnlock()
	if caller != owner {
		return 0, domain.ErrNotOwner
	}

	st, err := r.enter(id)
	if err != nil {
		return 0, err
	}
	defer st.guard.release()

	st.mu.Lock()
	if st.m.Status != domain.MarketStatusResolved {
		st.mu.Unlock()
		return 0, domain.ErrMarketNotResolved
	}
	if st.m.LiquidityPool != 0 {
		st.mu.Unlock()
		return 0, domain.ErrPoolNotDrained
	}
	residual := st.m.FeesCollected
	if residual == 0 {
		st.mu.Unlock()
		return 0, domain.ErrNothingToClaim
	}
	st.m.FeesCollected = 0
	st.mu.Unlock()

	if err := r.asset.TransferOut(ctx, caller, residual); err != nil {
		st.mu.Lock()
		st.m.FeesCollected = residual
		st.mu.Unlock()
		return 0, err
	}
	return residual, nil
}
