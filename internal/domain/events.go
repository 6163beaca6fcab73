package domain

import "time"

// EventType identifies a market event for consumers such as the signal bus,
// the websocket feed, and the event store.
type EventType string

const (
	EventMarketCreated    EventType = "market_created"
	EventLiquidityAdded   EventType = "liquidity_added"
	EventLiquidityRemoved EventType = "liquidity_removed"
	EventTradeExecuted    EventType = "trade_executed"
	EventMarketResolved   EventType = "market_resolved"
	EventWinningsClaimed  EventType = "winnings_claimed"
	EventFeesClaimed      EventType = "lp_fees_claimed"
)

// Event is a single observable state delta. Fields that do not apply to a
// given event type are zero and omitted from the JSON encoding. Every event
// carries enough to reconstruct the delta off-core: market id, actor, and
// the amounts moved.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	MarketID  uint64    `json:"market_id"`
	Actor     string    `json:"actor"`
	Amount    uint64    `json:"amount,omitempty"`
	SharesOut uint64    `json:"shares_out,omitempty"`
	Fee       uint64    `json:"fee,omitempty"`
	IsYes     bool      `json:"is_yes,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
