package market

import (
	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/engine"
)

// side selects one of the two outcome-share ledgers of a market.
type side int

const (
	sideYes side = iota
	sideNo
)

// shareLedger holds a market's per-holder outcome-share balances. Mint and
// burn are only reachable through the registry, which is what keeps the sum
// of balances on each side equal to the market's reserve totals. Balances
// are created on first mint and deleted again when burned to zero.
type shareLedger struct {
	yes map[string]uint64
	no  map[string]uint64
}

func newShareLedger() *shareLedger {
	return &shareLedger{
		yes: make(map[string]uint64),
		no:  make(map[string]uint64),
	}
}

func (l *shareLedger) sideOf(s side) map[string]uint64 {
	if s == sideYes {
		return l.yes
	}
	return l.no
}

func (l *shareLedger) balance(s side, holder string) uint64 {
	return l.sideOf(s)[holder]
}

// contribution is the holder's matched-pair liquidity: min(yes, no).
func (l *shareLedger) contribution(holder string) uint64 {
	y, n := l.yes[holder], l.no[holder]
	if y < n {
		return y
	}
	return n
}

func (l *shareLedger) mint(s side, holder string, amount uint64) error {
	m := l.sideOf(s)
	next, err := engine.CheckedAdd(m[holder], amount)
	if err != nil {
		return err
	}
	m[holder] = next
	return nil
}

func (l *shareLedger) burn(s side, holder string, amount uint64) error {
	m := l.sideOf(s)
	bal := m[holder]
	if bal < amount {
		return domain.ErrInsufficientShares
	}
	if bal == amount {
		delete(m, holder)
		return nil
	}
	m[holder] = bal - amount
	return nil
}
