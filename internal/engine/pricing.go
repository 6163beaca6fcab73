// Package engine implements the stateless constant-product pricing math for
// binary-outcome markets. All arithmetic is unsigned integer with explicit
// floor division; intermediate products are carried at 128 bits so the
// reserve invariant k = yes * no never loses precision. Rounding dust from
// floor division is always retained by the pool, never paid out.
package engine

import (
	"math/bits"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// PriceScaleBps is the fixed-point price scale: 10000 basis points = 100%.
const PriceScaleBps = 10_000

// CheckedAdd returns a+b or ErrAmountOverflow if the sum wraps.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domain.ErrAmountOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrAmountOverflow if b exceeds a.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, domain.ErrAmountOverflow
	}
	return diff, nil
}

// mulDiv computes floor(a*b/d) with a 128-bit intermediate product.
// Requires d > hi(a*b), which holds for every call site in this package.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// MulDivChecked computes floor(a*b/d), failing with ErrAmountOverflow when
// the quotient does not fit in 64 bits or d is zero.
func MulDivChecked(a, b, d uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if d == 0 || hi >= d {
		return 0, domain.ErrAmountOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// Fee returns the fee skimmed from amountIn at feeRateBps basis points,
// rounded down. The trader keeps the rounding dust on the fee side; the
// pool keeps it on the pricing side.
func Fee(amountIn, feeRateBps uint64) uint64 {
	if feeRateBps == 0 {
		return 0
	}
	return mulDiv(amountIn, feeRateBps, PriceScaleBps)
}

// SharesOut computes the share output for a net (post-fee) input against
// the (reserveIn, reserveOut) pair, where reserveIn is the side being
// bought. When either reserve is zero the pool has never been seeded and
// pricing falls back to 1:1.
//
// The constant product k = reserveIn * reserveOut is exact at 128 bits;
// newOut = floor(k / (reserveIn + netIn)) can only shrink k, so the pool
// never loses value to rounding.
func SharesOut(reserveIn, reserveOut, netIn uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return netIn, nil
	}

	newIn, err := CheckedAdd(reserveIn, netIn)
	if err != nil {
		return 0, err
	}

	// hi(k) < reserveIn <= newIn because reserveOut < 2^64, so Div64 is safe.
	hi, lo := bits.Mul64(reserveIn, reserveOut)
	newOut, _ := bits.Div64(hi, lo, newIn)

	// newOut < reserveOut whenever netIn > 0; floor division cannot raise it.
	return reserveOut - newOut, nil
}

// SpotPrices returns both sides' spot prices in basis points. The price of
// a side is the opposite reserve over the total: priceYes = no/(yes+no).
// An unseeded pool is quoted at exactly 50/50.
func SpotPrices(yes, no uint64) (domain.PricePair, error) {
	if yes == 0 || no == 0 {
		return domain.PricePair{YesBps: PriceScaleBps / 2, NoBps: PriceScaleBps / 2}, nil
	}

	total, err := CheckedAdd(yes, no)
	if err != nil {
		return domain.PricePair{}, err
	}

	return domain.PricePair{
		YesBps: mulDiv(no, PriceScaleBps, total),
		NoBps:  mulDiv(yes, PriceScaleBps, total),
	}, nil
}

// Quote is the pure preview of a buy: it applies the same fee deduction and
// the same constant-product formula as the mutating trade path, so callers
// can predict output exactly before committing.
func Quote(yes, no uint64, isYes bool, amountIn, feeRateBps uint64) (domain.TradeResult, error) {
	fee := Fee(amountIn, feeRateBps)
	netIn, err := CheckedSub(amountIn, fee)
	if err != nil {
		return domain.TradeResult{}, err
	}

	var out uint64
	if isYes {
		out, err = SharesOut(yes, no, netIn)
	} else {
		out, err = SharesOut(no, yes, netIn)
	}
	if err != nil {
		return domain.TradeResult{}, err
	}

	return domain.TradeResult{SharesOut: out, Fee: fee, NetIn: netIn}, nil
}
