/*

Settlement receipts are the audit trail the engine produces for every
successful mint, swap, redeem, rebase, and donation. All amounts are in the
normalized 18-decimal accounting unit.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type SettlementKind string

const (
	KindMint             SettlementKind = "mint"
	KindSwap             SettlementKind = "swap"
	KindRedeemProportion SettlementKind = "redeem_proportion"
	KindRedeemSingle     SettlementKind = "redeem_single"
	KindRedeemMulti      SettlementKind = "redeem_multi"
	KindRebase           SettlementKind = "rebase"
	KindDonate           SettlementKind = "donate"
)

type SettlementReceipt struct {
	Kind      SettlementKind `json:"kind"`
	Account   string         `json:"account"`
	Timestamp time.Time      `json:"timestamp"`

	AmountsIn  []sdkmath.Int `json:"amounts_in,omitempty"`  // normalized per-asset inflow
	AmountsOut []sdkmath.Int `json:"amounts_out,omitempty"` // normalized per-asset outflow
	TokenIn    int           `json:"token_in"`              // swap only, -1 otherwise
	TokenOut   int           `json:"token_out"`             // swap / redeemSingle, -1 otherwise

	ClaimDelta sdkmath.Int `json:"claim_delta"` // claim tokens minted (positive) or burned
	FeeCharged sdkmath.Int `json:"fee_charged"`

	D           sdkmath.Int `json:"d"`            // invariant after settlement
	TotalSupply sdkmath.Int `json:"total_supply"` // pool-attributable supply after settlement
}

// RebaseSnapshot captures the pool state written after each rebase pass,
// including how the balance growth was classified.
type RebaseSnapshot struct {
	Timestamp     time.Time     `json:"timestamp"`
	Balances      []sdkmath.Int `json:"balances"`
	D             sdkmath.Int   `json:"d"`
	TotalSupply   sdkmath.Int   `json:"total_supply"`
	FeeAmount     sdkmath.Int   `json:"fee_amount"`   // drift classified as trading fee accrual
	YieldAmount   sdkmath.Int   `json:"yield_amount"` // drift classified as external yield
	BufferAmount  sdkmath.Int   `json:"buffer_amount"`
	BufferBadDebt sdkmath.Int   `json:"buffer_bad_debt"`
}
