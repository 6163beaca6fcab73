package market

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/engine"
)

// resolve is the shared settlement path. When checkDeadline is set the
// market must be past its resolution deadline.
func (r *Registry) resolve(ctx context.Context, caller string, id uint64, outcome domain.Outcome, checkDeadline bool) error {
	r.mu.RLock()
	resolver := r.resolver
	r.mu.RUnlock()
	if caller != resolver {
		return domain.ErrNotResolver
	}
	if !outcome.Valid() {
		return domain.ErrInvalidOutcome
	}

	st, err := r.enter(id)
	if err != nil {
		return err
	}
	defer st.guard.release()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.m.Status != domain.MarketStatusActive {
		return domain.ErrMarketNotActive
	}
	if checkDeadline && r.now().Before(st.m.ResolutionDeadline) {
		return domain.ErrMarketNotExpired
	}
	st.m.Status = domain.MarketStatusResolved
	st.m.Outcome = outcome

	r.logger.InfoContext(ctx, "market resolved",
		slog.Uint64("market_id", id),
		slog.String("outcome", string(outcome)),
		slog.Bool("forced", !checkDeadline),
	)
	return nil
}

// ResolveMarket settles a market after its deadline. Resolver only.
func (r *Registry) ResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error {
	return r.resolve(ctx, caller, id, outcome, true)
}

// ForceResolveMarket settles a market before its deadline, for controlled
// early settlement. Resolver only.
func (r *Registry) ForceResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error {
	return r.resolve(ctx, caller, id, outcome, false)
}

// ClaimWinnings redeems the caller's shares of a resolved market. Winning
// shares redeem 1:1 with settlement asset; an Invalid outcome refunds both
// sides in full. The entire balance is burned in one claim, so a second
// claim finds nothing.
func (r *Registry) ClaimWinnings(ctx context.Context, caller string, id uint64) (uint64, error) {
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

	yes := st.shares.balance(sideYes, caller)
	no := st.shares.balance(sideNo, caller)

	var payout, burnYes, burnNo uint64
	switch st.m.Outcome {
	case domain.OutcomeYes:
		if yes == 0 {
			st.mu.Unlock()
			return 0, domain.ErrNoWinningShares
		}
		payout, burnYes = yes, yes
	case domain.OutcomeNo:
		if no == 0 {
			st.mu.Unlock()
			return 0, domain.ErrNoWinningShares
		}
		payout, burnNo = no, no
	case domain.OutcomeInvalid:
		if yes == 0 && no == 0 {
			st.mu.Unlock()
			return 0, domain.ErrNoSharesToRefund
		}
		sum, err := engine.CheckedAdd(yes, no)
		if err != nil {
			st.mu.Unlock()
			return 0, err
		}
		payout, burnYes, burnNo = sum, yes, no
	default:
		st.mu.Unlock()
		return 0, domain.ErrNoPayout
	}
	if payout == 0 {
		st.mu.Unlock()
		return 0, domain.ErrNoPayout
	}

	if burnYes > 0 {
		_ = st.shares.burn(sideYes, caller, burnYes)
		if st.m.TotalYesShares >= burnYes {
			st.m.TotalYesShares -= burnYes
		} else {
			st.m.TotalYesShares = 0
		}
	}
	if burnNo > 0 {
		_ = st.shares.burn(sideNo, caller, burnNo)
		if st.m.TotalNoShares >= burnNo {
			st.m.TotalNoShares -= burnNo
		} else {
			st.m.TotalNoShares = 0
		}
	}
	st.mu.Unlock()

	if err := r.asset.TransferOut(ctx, caller, payout); err != nil {
		st.mu.Lock()
		if burnYes > 0 {
			_ = st.shares.mint(sideYes, caller, burnYes)
			st.m.TotalYesShares += burnYes
		}
		if burnNo > 0 {
			_ = st.shares.mint(sideNo, caller, burnNo)
			st.m.TotalNoShares += burnNo
		}
		st.mu.Unlock()
		return 0, err
	}

	r.logger.InfoContext(ctx, "winnings claimed",
		slog.Uint64("market_id", id),
		slog.String("holder", caller),
		slog.Uint64("payout", payout),
	)
	return payout, nil
}
