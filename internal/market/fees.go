package market

import (
	"github.com/alanyoungcy/predictamm/internal/engine"
)

// feeLedger tracks, per holder, the cumulative fee amount ever credited to
// them for one market. The watermark only moves forward; claims are the
// delta between a freshly computed cumulative share and the watermark,
// which makes repeated claims idempotent and order-independent across any
// interleaving of trades and claims by other providers.
type feeLedger struct {
	claimed map[string]uint64
}

func newFeeLedger() *feeLedger {
	return &feeLedger{claimed: make(map[string]uint64)}
}

// claimable computes the holder's currently claimable fee delta together
// with the cumulative share it derives from.
//
// totalShare = floor(contribution * feesCollected / liquidityPool). When
// earlier claims by other holders have shrunk feesCollected below the
// holder's watermark, the delta is defined as zero rather than an
// underflow: nothing is currently owed.
func (f *feeLedger) claimable(holder string, contribution, feesCollected, pool uint64) (delta, totalShare uint64, err error) {
	if contribution == 0 || pool == 0 {
		return 0, 0, nil
	}

	totalShare, err = engine.MulDivChecked(contribution, feesCollected, pool)
	if err != nil {
		return 0, 0, err
	}

	already := f.claimed[holder]
	if totalShare <= already {
		return 0, totalShare, nil
	}
	return totalShare - already, totalShare, nil
}

// record resyncs the holder's watermark to the given cumulative share.
// The watermark is set to totalShare, not incremented, so a later claim
// against an unchanged pool yields exactly zero.
func (f *feeLedger) record(holder string, totalShare uint64) {
	f.claimed[holder] = totalShare
}

// settle clamps a claim against the remaining collected fees so the
// decrement can never underflow; any excess produced by reserve drift is
// absorbed rather than paid.
func settleClaim(claimable, feesCollected uint64) (paid, remaining uint64) {
	if claimable > feesCollected {
		return feesCollected, 0
	}
	return claimable, feesCollected - claimable
}
