/*

Read-only quote and inspection methods. These price an operation against the
current state without settling it, so API handlers and the router can show
callers what they would receive.

*/

package pool

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/curve"
	"github.com/stablekit/stableswap/internal/types"
)

// GetMintAmount quotes the net claim tokens and fee for a deposit of native
// amounts.
func (p *Pool) GetMintAmount(amounts []sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calc, err := p.calcMint(amounts)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return calc.netAmount, calc.fee, nil
}

// GetSwapAmount quotes the native output and the fee (in normalized units)
// for swapping dx of asset i into asset j.
func (p *Pool) GetSwapAmount(i, j int, dx sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calc, err := p.calcSwap(i, j, dx)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return calc.nativeOut, calc.fee, nil
}

// GetRedeemProportionAmount quotes the native payout per asset and the fee
// for a proportional redemption of `amount` claim tokens.
func (p *Pool) GetRedeemProportionAmount(amount sdkmath.Int) ([]sdkmath.Int, sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calc, err := p.calcRedeemProportion(amount)
	if err != nil {
		return nil, sdkmath.ZeroInt(), err
	}
	return calc.nativeOut, calc.fee, nil
}

// GetRedeemSingleAmount quotes the native payout of asset j and the fee for
// redeeming `amount` claim tokens into a single asset.
func (p *Pool) GetRedeemSingleAmount(amount sdkmath.Int, j int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calc, err := p.calcRedeemSingle(amount, j)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return calc.nativeOut, calc.fee, nil
}

// GetRedeemMultiAmount quotes the claim tokens burned (fee included) for
// withdrawing exact native amounts.
func (p *Pool) GetRedeemMultiAmount(amounts []sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calc, err := p.calcRedeemMulti(amounts)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return calc.redeemAmount, calc.fee, nil
}

// Tokens returns the pool's asset list in index order.
func (p *Pool) Tokens() []types.Asset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]types.Asset, len(p.assets))
	copy(out, p.assets)
	return out
}

// Balances returns the normalized balance per asset.
func (p *Pool) Balances() []sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]sdkmath.Int, len(p.balances))
	copy(out, p.balances)
	return out
}

// RawBalances returns the native units held per asset.
func (p *Pool) RawBalances() []sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]sdkmath.Int, len(p.rawBalances))
	copy(out, p.rawBalances)
	return out
}

// TotalSupply returns the claim value attributed to this pool.
func (p *Pool) TotalSupply() sdkmath.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalSupply
}

// A returns the current amplification coefficient, interpolated if a ramp is
// in progress.
func (p *Pool) A() sdkmath.Int {
	return p.ramp.GetA()
}

// D recomputes the invariant from the current balances.
func (p *Pool) D() (sdkmath.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.totalSupply.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return curve.ComputeD(p.balances, p.ramp.GetA())
}

// Paused reports whether settlement is suspended.
func (p *Pool) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

// Params returns a snapshot of the pool's governed parameters.
func (p *Pool) Params() types.EngineParameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.EngineParameters{
		A:                   p.ramp.GetA().Uint64(),
		MintFee:             p.mintFee.Uint64(),
		SwapFee:             p.swapFee.Uint64(),
		RedeemFee:           p.redeemFee.Uint64(),
		OffPegFeeMultiplier: p.offPegFeeMultiplier.Uint64(),
		MinRampTimeSeconds:  p.minRampTimeSeconds,
		FeeErrorMargin:      p.feeErrorMargin.String(),
		YieldErrorMargin:    p.yieldErrorMargin.String(),
		MaxDeltaD:           p.maxDeltaD.String(),
		BufferPercent:       p.bufferPercent,
	}
}
