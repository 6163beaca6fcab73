package domain

import "errors"

// Validation errors (caller-correctable).
var (
	ErrMarketNotFound   = errors.New("market not found")
	ErrInvalidQuestion  = errors.New("question must not be empty")
	ErrInvalidDeadline  = errors.New("deadline must be in the future and at most 365 days ahead")
	ErrZeroAmount       = errors.New("amount must be greater than zero")
	ErrNoMatchingPair   = errors.New("no matched yes/no pair to redeem")
	ErrSlippageExceeded = errors.New("shares out below minimum")
	ErrZeroOutput       = errors.New("trade produces zero shares")
	ErrInvalidOutcome   = errors.New("outcome must be yes, no, or invalid")
)

// State errors.
var (
	ErrMarketNotActive   = errors.New("market is not active")
	ErrMarketExpired     = errors.New("market is past its resolution deadline")
	ErrMarketNotExpired  = errors.New("market deadline has not passed")
	ErrMarketNotResolved = errors.New("market is not resolved")
	ErrReentrantCall     = errors.New("reentrant call rejected")
)

// Authorization errors.
var (
	ErrNotResolver = errors.New("caller is not the resolver")
	ErrNotOwner    = errors.New("caller is not the owner")
)

// Economic errors.
var (
	ErrInsufficientLiquidity = errors.New("liquidity pool below minimum")
	ErrInsufficientShares    = errors.New("insufficient share balance")
	ErrNoWinningShares       = errors.New("no winning shares to claim")
	ErrNoSharesToRefund      = errors.New("no shares to refund")
	ErrNoPayout              = errors.New("computed payout is zero")
	ErrNoLiquidityProvided   = errors.New("caller has provided no liquidity")
	ErrNothingToClaim        = errors.New("no fees claimable")
	ErrFeeRateTooHigh        = errors.New("fee rate exceeds maximum")
	ErrPoolNotDrained        = errors.New("liquidity pool not fully withdrawn")
)

// Arithmetic: unsigned amounts must never wrap around.
var ErrAmountOverflow = errors.New("amount arithmetic overflow")

// Infrastructure errors shared by stores and caches.
var (
	ErrNotFound     = errors.New("not found")
	ErrInsufficient = errors.New("insufficient settlement balance")
)
