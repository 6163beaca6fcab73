package asset

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

func TestBankTransfers(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	if err := b.Deposit("alice", 500); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if err := b.TransferIn(ctx, "alice", 200); err != nil {
		t.Fatalf("TransferIn: %v", err)
	}
	if bal, _ := b.BalanceOf(ctx, "alice"); bal != 300 {
		t.Errorf("alice balance = %d, want 300", bal)
	}
	if b.Custody() != 200 {
		t.Errorf("custody = %d, want 200", b.Custody())
	}

	if err := b.TransferOut(ctx, "bob", 150); err != nil {
		t.Fatalf("TransferOut: %v", err)
	}
	if bal, _ := b.BalanceOf(ctx, "bob"); bal != 150 {
		t.Errorf("bob balance = %d, want 150", bal)
	}
	if b.Custody() != 50 {
		t.Errorf("custody = %d, want 50", b.Custody())
	}
}

func TestBankFailedTransferMovesNothing(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	b.Deposit("alice", 100)

	if err := b.TransferIn(ctx, "alice", 101); !errors.Is(err, domain.ErrInsufficient) {
		t.Fatalf("TransferIn err = %v, want ErrInsufficient", err)
	}
	if bal, _ := b.BalanceOf(ctx, "alice"); bal != 100 {
		t.Errorf("alice balance = %d, want 100 after failed pull", bal)
	}
	if b.Custody() != 0 {
		t.Errorf("custody = %d, want 0", b.Custody())
	}

	if err := b.TransferOut(ctx, "alice", 1); !errors.Is(err, domain.ErrInsufficient) {
		t.Fatalf("TransferOut err = %v, want ErrInsufficient", err)
	}
}

func TestBankOverflowRejected(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	b.Deposit("alice", math.MaxUint64)

	if err := b.Deposit("alice", 1); !errors.Is(err, domain.ErrAmountOverflow) {
		t.Fatalf("Deposit err = %v, want ErrAmountOverflow", err)
	}

	// Custody overflow leaves the holder's balance untouched.
	if err := b.TransferIn(ctx, "alice", math.MaxUint64); err != nil {
		t.Fatalf("TransferIn: %v", err)
	}
	b.Deposit("bob", 10)
	if err := b.TransferIn(ctx, "bob", 1); !errors.Is(err, domain.ErrAmountOverflow) {
		t.Fatalf("TransferIn err = %v, want ErrAmountOverflow", err)
	}
	if bal, _ := b.BalanceOf(ctx, "bob"); bal != 10 {
		t.Errorf("bob balance = %d, want 10 after failed pull", bal)
	}
}

func TestBankUnknownHolder(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	if bal, err := b.BalanceOf(ctx, "ghost"); err != nil || bal != 0 {
		t.Errorf("BalanceOf ghost = %d, %v; want 0, nil", bal, err)
	}
	if err := b.TransferIn(ctx, "ghost", 1); !errors.Is(err, domain.ErrInsufficient) {
		t.Errorf("TransferIn ghost err = %v, want ErrInsufficient", err)
	}
}
