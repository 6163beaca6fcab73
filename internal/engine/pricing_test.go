package engine

import (
	"testing"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

func TestSharesOut(t *testing.T) {
	tests := []struct {
		name       string
		reserveIn  uint64
		reserveOut uint64
		netIn      uint64
		want       uint64
	}{
		{
			name:      "balanced pool reference trade",
			reserveIn: 1000, reserveOut: 1000, netIn: 98,
			// k=1,000,000; newIn=1098; newOut=floor(1000000/1098)=910
			want: 90,
		},
		{
			name:      "zero input yields zero output",
			reserveIn: 1000, reserveOut: 1000, netIn: 0,
			want: 0,
		},
		{
			name:      "unseeded pool prices one to one",
			reserveIn: 0, reserveOut: 0, netIn: 50,
			want: 50,
		},
		{
			name:      "one empty reserve prices one to one",
			reserveIn: 0, reserveOut: 500, netIn: 7,
			want: 7,
		},
		{
			name:      "skewed pool",
			reserveIn: 100, reserveOut: 10000, netIn: 100,
			// k=1,000,000; newIn=200; newOut=5000
			want: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SharesOut(tt.reserveIn, tt.reserveOut, tt.netIn)
			if err != nil {
				t.Fatalf("SharesOut() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SharesOut() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSharesOut_LargeReservesNoPrecisionLoss(t *testing.T) {
	// k overflows 64 bits; the 128-bit intermediate must stay exact.
	const y, n = uint64(1) << 40, uint64(1) << 40
	out, err := SharesOut(y, n, 1<<20)
	if err != nil {
		t.Fatalf("SharesOut() error = %v", err)
	}
	// At a balanced pool the division is exact: (2^40+2^20)(2^40-2^20)
	// = 2^80 - 2^40, so floor(2^80/(2^40+2^20)) = 2^40 - 2^20 and the
	// output equals the net input with no rounding dust.
	if out != 1<<20 {
		t.Errorf("SharesOut() = %d, want %d", out, uint64(1)<<20)
	}
}

func TestSharesOut_OverflowingReserveFails(t *testing.T) {
	_, err := SharesOut(^uint64(0), 1000, 1)
	if err != domain.ErrAmountOverflow {
		t.Errorf("SharesOut() error = %v, want ErrAmountOverflow", err)
	}
}

func TestFee(t *testing.T) {
	tests := []struct {
		name     string
		amountIn uint64
		rateBps  uint64
		want     uint64
	}{
		{"two percent of 100", 100, 200, 2},
		{"rounds down", 99, 200, 1},
		{"zero rate", 1000, 0, 0},
		{"below one unit rounds to zero", 4, 200, 0},
		{"max rate", 1000, 500, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fee(tt.amountIn, tt.rateBps); got != tt.want {
				t.Errorf("Fee(%d, %d) = %d, want %d", tt.amountIn, tt.rateBps, got, tt.want)
			}
		})
	}
}

func TestSpotPrices(t *testing.T) {
	tests := []struct {
		name    string
		yes, no uint64
		wantYes uint64
		wantNo  uint64
	}{
		{"balanced", 1000, 1000, 5000, 5000},
		{"unseeded is fifty fifty", 0, 0, 5000, 5000},
		{"one side empty is fifty fifty", 0, 800, 5000, 5000},
		// priceYes = 910*10000/2008 = 4531, priceNo = 1098*10000/2008 = 5468
		{"post trade", 1098, 910, 4531, 5468},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := SpotPrices(tt.yes, tt.no)
			if err != nil {
				t.Fatalf("SpotPrices() error = %v", err)
			}
			if p.YesBps != tt.wantYes || p.NoBps != tt.wantNo {
				t.Errorf("SpotPrices(%d, %d) = (%d, %d), want (%d, %d)",
					tt.yes, tt.no, p.YesBps, p.NoBps, tt.wantYes, tt.wantNo)
			}
			sum := p.YesBps + p.NoBps
			if sum > PriceScaleBps || sum < PriceScaleBps-1 {
				t.Errorf("price sum = %d, want within 1 of %d", sum, PriceScaleBps)
			}
		})
	}
}

func TestQuote_MatchesFeeAndFormula(t *testing.T) {
	res, err := Quote(1000, 1000, true, 100, 200)
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if res.Fee != 2 || res.NetIn != 98 || res.SharesOut != 90 {
		t.Errorf("Quote() = %+v, want fee=2 netIn=98 sharesOut=90", res)
	}

	// A No-buy against the mirrored reserves is symmetric.
	mirror, err := Quote(1000, 1000, false, 100, 200)
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if mirror.SharesOut != res.SharesOut {
		t.Errorf("no-buy sharesOut = %d, want %d", mirror.SharesOut, res.SharesOut)
	}
}

func TestQuote_YesBuyMovesPricesTowardNo(t *testing.T) {
	yes, no := uint64(1000), uint64(1000)
	before, _ := SpotPrices(yes, no)

	res, err := Quote(yes, no, true, 100, 200)
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	after, _ := SpotPrices(yes+res.NetIn, no-res.SharesOut)

	if after.YesBps >= before.YesBps {
		t.Errorf("priceYes did not decrease: %d -> %d", before.YesBps, after.YesBps)
	}
	if after.NoBps <= before.NoBps {
		t.Errorf("priceNo did not increase: %d -> %d", before.NoBps, after.NoBps)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := CheckedAdd(^uint64(0), 1); err != domain.ErrAmountOverflow {
		t.Errorf("CheckedAdd overflow error = %v, want ErrAmountOverflow", err)
	}
	if v, err := CheckedAdd(40, 2); err != nil || v != 42 {
		t.Errorf("CheckedAdd(40, 2) = %d, %v", v, err)
	}
	if _, err := CheckedSub(1, 2); err != domain.ErrAmountOverflow {
		t.Errorf("CheckedSub underflow error = %v, want ErrAmountOverflow", err)
	}
	if v, err := CheckedSub(44, 2); err != nil || v != 42 {
		t.Errorf("CheckedSub(44, 2) = %d, %v", v, err)
	}
	if _, err := MulDivChecked(1<<40, 1<<40, 2); err != domain.ErrAmountOverflow {
		t.Errorf("MulDivChecked overflow error = %v, want ErrAmountOverflow", err)
	}
	if v, err := MulDivChecked(21, 4, 2); err != nil || v != 42 {
		t.Errorf("MulDivChecked(21, 4, 2) = %d, %v", v, err)
	}
}
