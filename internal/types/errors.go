package types

import (
	"cosmossdk.io/errors"
)

// Codespace groups all engine sentinel errors under one registry.
const Codespace = "stableswap"

// Engine sentinel errors. Settlement operations revert entirely when any of
// these surface; none are retried internally.
var (
	// Input validation
	ErrZeroAmount       = errors.Register(Codespace, 1, "amount cannot be zero")
	ErrLengthMismatch   = errors.Register(Codespace, 2, "amounts length does not match pool tokens")
	ErrDuplicateToken   = errors.Register(Codespace, 3, "duplicate token in pool")
	ErrTokenNotFound    = errors.Register(Codespace, 4, "token index out of range")
	ErrSameToken        = errors.Register(Codespace, 5, "token in and token out are the same")
	ErrInvalidFee       = errors.Register(Codespace, 6, "fee outside [0, fee denominator)")
	ErrInvalidA         = errors.Register(Codespace, 7, "amplification coefficient outside (0, 1e6]")

	// Slippage / caller bounds
	ErrInsufficientMintAmount    = errors.Register(Codespace, 10, "mint amount below caller minimum")
	ErrInsufficientSwapOutAmount = errors.Register(Codespace, 11, "swap output below caller minimum")
	ErrInsufficientRedeemAmount  = errors.Register(Codespace, 12, "redeem payout below caller minimum")
	ErrMaxRedeemAmount           = errors.Register(Codespace, 13, "redeem amount above caller maximum")

	// Invariant health
	ErrPoolPaused      = errors.Register(Codespace, 20, "pool is paused")
	ErrImbalancedPool  = errors.Register(Codespace, 21, "pool balances imbalanced beyond tolerance")
	ErrDeltaDExceeded  = errors.Register(Codespace, 22, "invariant drift exceeds max delta D")
	ErrLossNotApproved = errors.Register(Codespace, 23, "negative rebase requires governor loss distribution")

	// Authorization
	ErrNoPool       = errors.Register(Codespace, 30, "caller is not a registered pool")
	ErrNotAdmin     = errors.Register(Codespace, 31, "caller is not an admin")
	ErrNotGovernor  = errors.Register(Codespace, 32, "caller is not the governor")
	ErrUnauthorized = errors.Register(Codespace, 33, "caller lacks the required role")

	// Numeric / convergence
	ErrConvergence = errors.Register(Codespace, 40, "invariant solver did not converge")

	// Governance bounds
	ErrFeeDeltaTooBig       = errors.Register(Codespace, 50, "relative parameter change exceeds bound")
	ErrFeeOutOfBounds       = errors.Register(Codespace, 51, "parameter value exceeds absolute cap")
	ErrExcessiveAChange     = errors.Register(Codespace, 52, "amplification change exceeds hard safety limit")
	ErrInsufficientRampTime = errors.Register(Codespace, 53, "ramp duration below minimum")
	ErrRampInProgress       = errors.Register(Codespace, 54, "a ramp is already in progress")
	ErrNoBoundsForParam     = errors.Register(Codespace, 55, "no bounds registered for parameter")

	// Ledger
	ErrInsufficientBalance   = errors.Register(Codespace, 60, "insufficient token balance")
	ErrInsufficientShares    = errors.Register(Codespace, 61, "insufficient shares")
	ErrInsufficientAllowance = errors.Register(Codespace, 62, "insufficient allowance")
	ErrInsufficientBuffer    = errors.Register(Codespace, 63, "insufficient buffer")
	ErrNoSupply              = errors.Register(Codespace, 64, "ledger has no supply")

	// External rate sources
	ErrStalePrice  = errors.Register(Codespace, 70, "exchange rate is stale")
	ErrRateInvalid = errors.Register(Codespace, 71, "exchange rate source returned an invalid rate")
)
