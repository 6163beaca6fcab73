package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive    MarketStatus = "active"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
)

// Outcome is the final result of a binary market. Unresolved until the
// resolver settles the market; Invalid refunds both sides.
type Outcome string

const (
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeYes        Outcome = "yes"
	OutcomeNo         Outcome = "no"
	OutcomeInvalid    Outcome = "invalid"
)

// Valid reports whether o is an outcome the resolver may settle a market
// with. Unresolved is not a settlement outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeYes, OutcomeNo, OutcomeInvalid:
		return true
	}
	return false
}

// Market is a binary-outcome prediction market. All amounts are unsigned
// integer units of the settlement asset; share reserves are unsigned share
// counts. A market is Active until the resolver settles it, after which
// only liquidity removal and claims remain possible.
type Market struct {
	ID                 uint64       `json:"id"`
	Question           string       `json:"question"`
	Creator            string       `json:"creator"`
	ResolutionDeadline time.Time    `json:"resolution_deadline"`
	CreatedAt          time.Time    `json:"created_at"`
	Status             MarketStatus `json:"status"`
	Outcome            Outcome      `json:"outcome"`
	TotalYesShares     uint64       `json:"total_yes_shares"`
	TotalNoShares      uint64       `json:"total_no_shares"`
	LiquidityPool      uint64       `json:"liquidity_pool"`
	FeesCollected      uint64       `json:"fees_collected"`
}

// TradeResult reports the effects of a share purchase.
type TradeResult struct {
	SharesOut uint64 `json:"shares_out"`
	Fee       uint64 `json:"fee"`
	NetIn     uint64 `json:"net_in"`
}

// PricePair is a spot-price quote for both sides in basis points.
// The two values always sum to 10000 within one unit of rounding.
type PricePair struct {
	YesBps uint64 `json:"yes_bps"`
	NoBps  uint64 `json:"no_bps"`
}

// SharePosition is a holder's share balances in one market.
type SharePosition struct {
	MarketID uint64 `json:"market_id"`
	Holder   string `json:"holder"`
	Yes      uint64 `json:"yes"`
	No       uint64 `json:"no"`
}
