// Package asset provides an in-memory reference implementation of the
// settlement asset used by standalone deployments and the test suite. Real
// deployments treat the settlement asset as an external collaborator behind
// the same interface.
package asset

import (
	"context"
	"sync"

	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/engine"
)

// Bank is a thread-safe in-memory settlement ledger with exact integer
// accounting. Funds pulled in accumulate in a single custody balance; funds
// paid out draw from it. A transfer either moves the full amount or fails.
type Bank struct {
	mu       sync.Mutex
	balances map[string]uint64
	custody  uint64
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]uint64)}
}

// Deposit credits a holder's free balance, e.g. from an external on-ramp.
func (b *Bank) Deposit(holder string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := engine.CheckedAdd(b.balances[holder], amount)
	if err != nil {
		return err
	}
	b.balances[holder] = next
	return nil
}

// TransferIn moves amount from the holder's free balance into custody.
func (b *Bank) TransferIn(_ context.Context, from string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return domain.ErrInsufficient
	}
	next, err := engine.CheckedAdd(b.custody, amount)
	if err != nil {
		return err
	}
	b.balances[from] -= amount
	b.custody = next
	return nil
}

// TransferOut moves amount from custody to the holder's free balance.
func (b *Bank) TransferOut(_ context.Context, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody < amount {
		return domain.ErrInsufficient
	}
	next, err := engine.CheckedAdd(b.balances[to], amount)
	if err != nil {
		return err
	}
	b.custody -= amount
	b.balances[to] = next
	return nil
}

// BalanceOf reports the holder's free balance.
func (b *Bank) BalanceOf(_ context.Context, holder string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[holder], nil
}

// Custody reports the total amount currently held on behalf of markets.
func (b *Bank) Custody() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.custody
}

var _ domain.SettlementAsset = (*Bank)(nil)
