/*

Convenience wrapper over the pool and the share ledger. The router composes
engine and ledger calls in sequence, performs no accounting of its own, and
propagates engine failures verbatim. Settlement receipts are handed to an
optional recorder for persistence; recording failures are logged and never
fail the settlement that produced them.

*/

package router

import (
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stablekit/stableswap/internal/ledger"
	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/pool"
	"github.com/stablekit/stableswap/internal/types"
)

// Recorder persists settlement receipts. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordReceipt(receipt *types.SettlementReceipt) error
}

type Router struct {
	log      zerolog.Logger
	pool     *pool.Pool
	ledger   *ledger.Ledger
	recorder Recorder
}

// New wires a router over one pool and its ledger. recorder may be nil.
func New(p *pool.Pool, l *ledger.Ledger, recorder Recorder) *Router {
	return &Router{
		log:      logger.GetForComponent("router"),
		pool:     p,
		ledger:   l,
		recorder: recorder,
	}
}

// Pool exposes the wrapped pool for read paths.
func (r *Router) Pool() *pool.Pool { return r.pool }

// Ledger exposes the wrapped ledger for read paths.
func (r *Router) Ledger() *ledger.Ledger { return r.ledger }

// Mint deposits for account and leaves the claim with them.
func (r *Router) Mint(account string, amounts []sdkmath.Int, minMintAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.Mint(account, amounts, minMintAmount)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// MintTo deposits for account and forwards the freshly minted claim to
// recipient in the same call.
func (r *Router) MintTo(account, recipient string, amounts []sdkmath.Int, minMintAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.Mint(account, amounts, minMintAmount)
	if err != nil {
		return nil, err
	}
	if account != recipient {
		if err := r.ledger.Transfer(account, recipient, receipt.ClaimDelta); err != nil {
			return nil, err
		}
	}
	r.record(receipt)
	return receipt, nil
}

// Swap trades between two pool assets for account.
func (r *Router) Swap(account string, tokenIn, tokenOut int, amountIn, minAmountOut sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.Swap(account, tokenIn, tokenOut, amountIn, minAmountOut)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// RedeemProportion burns account's claim for a pro-rata payout.
func (r *Router) RedeemProportion(account string, amount sdkmath.Int, minAmounts []sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.RedeemProportion(account, amount, minAmounts)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// RedeemSingle burns account's claim for a single-asset payout.
func (r *Router) RedeemSingle(account string, amount sdkmath.Int, tokenOut int, minRedeemAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.RedeemSingle(account, amount, tokenOut, minRedeemAmount)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// RedeemMulti burns whatever claim the exact requested payout costs.
func (r *Router) RedeemMulti(account string, amounts []sdkmath.Int, maxRedeemAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.RedeemMulti(account, amounts, maxRedeemAmount)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// Donate redistributes account's claim to the remaining holders.
func (r *Router) Donate(account string, amount sdkmath.Int) (*types.SettlementReceipt, error) {
	receipt, err := r.pool.Donate(account, amount)
	if err != nil {
		return nil, err
	}
	r.record(receipt)
	return receipt, nil
}

// GetTokens lists the pool's assets.
func (r *Router) GetTokens() []types.Asset {
	return r.pool.Tokens()
}

func (r *Router) record(receipt *types.SettlementReceipt) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordReceipt(receipt); err != nil {
		r.log.Error().Err(err).
			Str("kind", string(receipt.Kind)).
			Str("account", receipt.Account).
			Msg("Failed to persist settlement receipt")
	}
}
