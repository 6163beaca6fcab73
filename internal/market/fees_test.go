package market

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// seedFeeScenario sets up two providers with a 1:3 liquidity split and one
// trade: alice 1000, carol 3000, bob buys 1000 Yes at 200 bps.
// fee = 20, netIn = 980, pool = 4980, feesCollected = 20.
func seedFeeScenario(t *testing.T) (*testEnv, uint64) {
	t.Helper()
	env := newTestEnv(t)
	id := env.createMarket(t)
	ctx := context.Background()

	if err := env.reg.AddLiquidity(ctx, alice, id, 1000); err != nil {
		t.Fatalf("AddLiquidity(alice) error = %v", err)
	}
	if err := env.reg.AddLiquidity(ctx, carol, id, 3000); err != nil {
		t.Fatalf("AddLiquidity(carol) error = %v", err)
	}
	if _, err := env.reg.BuyShares(ctx, bob, id, true, 1000, 0); err != nil {
		t.Fatalf("BuyShares() error = %v", err)
	}

	m := env.market(t, id)
	if m.FeesCollected != 20 || m.LiquidityPool != 4980 {
		t.Fatalf("scenario setup: fees=%d pool=%d, want 20/4980", m.FeesCollected, m.LiquidityPool)
	}
	return env, id
}

func TestClaimableFees_ProportionalSplit(t *testing.T) {
	env, id := seedFeeScenario(t)

	// alice: 1000*20/4980 = 4; carol: 3000*20/4980 = 12. Exactly 1:3.
	aliceClaim, err := env.reg.ClaimableFees(id, alice)
	if err != nil {
		t.Fatalf("ClaimableFees(alice) error = %v", err)
	}
	carolClaim, err := env.reg.ClaimableFees(id, carol)
	if err != nil {
		t.Fatalf("ClaimableFees(carol) error = %v", err)
	}
	if aliceClaim != 4 || carolClaim != 12 {
		t.Errorf("claimables = %d/%d, want 4/12", aliceClaim, carolClaim)
	}

	// No over-allocation: the simultaneous claims never exceed the fee.
	if aliceClaim+carolClaim > 20 {
		t.Errorf("claimable sum %d exceeds collected fee 20", aliceClaim+carolClaim)
	}

	// A trader with no matched pair has nothing to claim.
	bobClaim, err := env.reg.ClaimableFees(id, bob)
	if err != nil {
		t.Fatalf("ClaimableFees(bob) error = %v", err)
	}
	if bobClaim != 0 {
		t.Errorf("ClaimableFees(bob) = %d, want 0", bobClaim)
	}
}

func TestClaimFees_SequenceDrainsToDust(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	paid, err := env.reg.ClaimFees(ctx, alice, id)
	if err != nil {
		t.Fatalf("ClaimFees(alice) error = %v", err)
	}
	if paid != 4 {
		t.Errorf("alice claimed %d, want 4", paid)
	}

	// carol's claim recomputes against the reduced feesCollected (16):
	// 3000*16/4980 = 9.
	paid, err = env.reg.ClaimFees(ctx, carol, id)
	if err != nil {
		t.Fatalf("ClaimFees(carol) error = %v", err)
	}
	if paid != 9 {
		t.Errorf("carol claimed %d, want 9", paid)
	}

	// Further claims find nothing; the rest is rounding dust in the pool.
	if _, err := env.reg.ClaimFees(ctx, alice, id); !errors.Is(err, domain.ErrNothingToClaim) {
		t.Errorf("second alice claim error = %v, want ErrNothingToClaim", err)
	}
	if _, err := env.reg.ClaimFees(ctx, carol, id); !errors.Is(err, domain.ErrNothingToClaim) {
		t.Errorf("second carol claim error = %v, want ErrNothingToClaim", err)
	}

	m := env.market(t, id)
	if m.FeesCollected != 7 {
		t.Errorf("residual fees = %d, want 7", m.FeesCollected)
	}
}

func TestClaimFees_IdempotentWithoutNewTrades(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	if _, err := env.reg.ClaimFees(ctx, alice, id); err != nil {
		t.Fatalf("ClaimFees() error = %v", err)
	}

	// The pure query reports zero without failing or underflowing.
	claimable, err := env.reg.ClaimableFees(id, alice)
	if err != nil {
		t.Fatalf("ClaimableFees() error = %v", err)
	}
	if claimable != 0 {
		t.Errorf("claimable after claim = %d, want 0", claimable)
	}

	if _, err := env.reg.ClaimFees(ctx, alice, id); !errors.Is(err, domain.ErrNothingToClaim) {
		t.Errorf("repeat claim error = %v, want ErrNothingToClaim", err)
	}
}

func TestClaimFees_WatermarkSurvivesOtherClaims(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	// carol claims first and shrinks feesCollected; alice's fresh share can
	// then fall below her watermark after she claims too. None of this may
	// underflow; later claims simply find nothing.
	if _, err := env.reg.ClaimFees(ctx, carol, id); err != nil {
		t.Fatalf("ClaimFees(carol) error = %v", err)
	}
	if _, err := env.reg.ClaimFees(ctx, alice, id); err != nil {
		t.Fatalf("ClaimFees(alice) error = %v", err)
	}
	if _, err := env.reg.ClaimFees(ctx, carol, id); !errors.Is(err, domain.ErrNothingToClaim) {
		t.Errorf("carol repeat claim error = %v, want ErrNothingToClaim", err)
	}

	claimable, err := env.reg.ClaimableFees(id, carol)
	if err != nil {
		t.Fatalf("ClaimableFees(carol) error = %v", err)
	}
	if claimable != 0 {
		t.Errorf("carol claimable = %d, want 0", claimable)
	}
}

func TestClaimFees_NewTradeAccruesMore(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	first, err := env.reg.ClaimFees(ctx, alice, id)
	if err != nil {
		t.Fatalf("ClaimFees() error = %v", err)
	}

	if _, err := env.reg.BuyShares(ctx, bob, id, false, 2000, 0); err != nil {
		t.Fatalf("BuyShares() error = %v", err)
	}

	second, err := env.reg.ClaimFees(ctx, alice, id)
	if err != nil {
		t.Fatalf("ClaimFees() after new trade error = %v", err)
	}
	if second == 0 {
		t.Error("claim after new trade paid 0, want > 0")
	}
	_ = first
}

func TestClaimFees_RequiresContribution(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	if _, err := env.reg.ClaimFees(ctx, bob, id); !errors.Is(err, domain.ErrNoLiquidityProvided) {
		t.Errorf("ClaimFees(trader) error = %v, want ErrNoLiquidityProvided", err)
	}
	if _, err := env.reg.ClaimFees(ctx, "stranger", id); !errors.Is(err, domain.ErrNoLiquidityProvided) {
		t.Errorf("ClaimFees(stranger) error = %v, want ErrNoLiquidityProvided", err)
	}
}

func TestClaimFees_AvailableAfterResolution(t *testing.T) {
	env, id := seedFeeScenario(t)
	ctx := context.Background()

	if err := env.reg.ForceResolveMarket(ctx, resolver, id, domain.OutcomeYes); err != nil {
		t.Fatalf("ForceResolveMarket() error = %v", err)
	}
	paid, err := env.reg.ClaimFees(ctx, alice, id)
	if err != nil {
		t.Fatalf("ClaimFees() after resolution error = %v", err)
	}
	if paid != 4 {
		t.Errorf("post-resolution claim = %d, want 4", paid)
	}
}
