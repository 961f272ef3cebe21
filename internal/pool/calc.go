/*

Pure pricing paths shared by the settlement operations and the read-only
quote views. Nothing in this file mutates pool state; callers hold the
appropriate lock.

*/

package pool

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/curve"
	"github.com/stablekit/stableswap/internal/types"
	"github.com/stablekit/stableswap/internal/utils"
)

type mintCalc struct {
	normalized  []sdkmath.Int
	newBalances []sdkmath.Int
	dOld        sdkmath.Int
	dNew        sdkmath.Int
	mintAmount  sdkmath.Int
	fee         sdkmath.Int
	netAmount   sdkmath.Int
}

func (p *Pool) calcMint(amounts []sdkmath.Int) (*mintCalc, error) {
	n := len(p.assets)
	if len(amounts) != n {
		return nil, types.ErrLengthMismatch
	}

	firstDeposit := p.totalSupply.IsZero()
	anyPositive := false
	normalized := make([]sdkmath.Int, n)
	newBalances := make([]sdkmath.Int, n)
	for i, amount := range amounts {
		if amount.IsNil() || amount.IsNegative() {
			return nil, types.ErrZeroAmount
		}
		if firstDeposit && amount.IsZero() {
			// The curve is undefined while any balance is zero, so the
			// opening deposit must fund every asset.
			return nil, types.ErrZeroAmount
		}
		if amount.IsPositive() {
			anyPositive = true
		}
		norm, err := utils.Normalize(amount, p.precisions[i], p.rates[i].Value, p.rates[i].Decimals)
		if err != nil {
			return nil, err
		}
		normalized[i] = norm
		newBalances[i] = p.balances[i].Add(norm)
	}
	if !anyPositive {
		return nil, types.ErrZeroAmount
	}

	a := p.ramp.GetA()
	dOld := sdkmath.ZeroInt()
	if !firstDeposit {
		var err error
		dOld, err = curve.ComputeD(p.balances, a)
		if err != nil {
			return nil, err
		}
	}
	dNew, err := curve.ComputeD(newBalances, a)
	if err != nil {
		return nil, err
	}

	mintAmount := dNew.Sub(dOld)
	fee := sdkmath.ZeroInt()
	if p.mintFee.IsPositive() && !firstDeposit {
		fee = mintAmount.Mul(p.mintFee).Quo(FeeDenominator)
	}

	return &mintCalc{
		normalized:  normalized,
		newBalances: newBalances,
		dOld:        dOld,
		dNew:        dNew,
		mintAmount:  mintAmount,
		fee:         fee,
		netAmount:   mintAmount.Sub(fee),
	}, nil
}

type swapCalc struct {
	normDx      sdkmath.Int
	newBalances []sdkmath.Int
	dBefore     sdkmath.Int
	dAfter      sdkmath.Int
	fee         sdkmath.Int
	dyOut       sdkmath.Int
	nativeOut   sdkmath.Int
}

func (p *Pool) calcSwap(i, j int, dx sdkmath.Int) (*swapCalc, error) {
	n := len(p.assets)
	if i < 0 || i >= n || j < 0 || j >= n {
		return nil, types.ErrTokenNotFound
	}
	if i == j {
		return nil, types.ErrSameToken
	}
	if dx.IsNil() || !dx.IsPositive() {
		return nil, types.ErrZeroAmount
	}

	normDx, err := utils.Normalize(dx, p.precisions[i], p.rates[i].Value, p.rates[i].Decimals)
	if err != nil {
		return nil, err
	}

	a := p.ramp.GetA()
	dBefore, err := curve.ComputeD(p.balances, a)
	if err != nil {
		return nil, err
	}

	newBalances := make([]sdkmath.Int, n)
	copy(newBalances, p.balances)
	newBalances[i] = newBalances[i].Add(normDx)

	y, err := curve.ComputeY(newBalances, j, dBefore, a)
	if err != nil {
		return nil, err
	}

	dy := p.balances[j].Sub(y)
	if !dy.IsPositive() {
		return nil, types.ErrInsufficientSwapOutAmount
	}

	fee := sdkmath.ZeroInt()
	if p.swapFee.IsPositive() {
		fee = dy.Mul(p.swapFee).Quo(FeeDenominator)
	}
	dyOut := dy.Sub(fee)

	// The fee stays in the output asset's balance; D after settlement
	// must not drift from D plus the retained fee.
	newBalances[j] = y.Add(fee)
	dAfter, err := curve.ComputeD(newBalances, a)
	if err != nil {
		return nil, err
	}
	if p.maxDeltaD.IsPositive() {
		drift := dAfter.Sub(dBefore.Add(fee)).Abs()
		if drift.GT(p.maxDeltaD) {
			return nil, types.ErrDeltaDExceeded
		}
	}

	nativeOut, err := utils.Denormalize(dyOut, p.precisions[j], p.rates[j].Value, p.rates[j].Decimals)
	if err != nil {
		return nil, err
	}

	return &swapCalc{
		normDx:      normDx,
		newBalances: newBalances,
		dBefore:     dBefore,
		dAfter:      dAfter,
		fee:         fee,
		dyOut:       dyOut,
		nativeOut:   nativeOut,
	}, nil
}

type redeemProportionCalc struct {
	newBalances  []sdkmath.Int
	normOut      []sdkmath.Int
	nativeOut    []sdkmath.Int
	redeemAmount sdkmath.Int
	fee          sdkmath.Int
	dAfter       sdkmath.Int
}

func (p *Pool) calcRedeemProportion(amount sdkmath.Int) (*redeemProportionCalc, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrZeroAmount
	}
	if p.totalSupply.IsZero() {
		return nil, types.ErrNoSupply
	}

	a := p.ramp.GetA()
	d, err := curve.ComputeD(p.balances, a)
	if err != nil {
		return nil, err
	}

	fee := sdkmath.ZeroInt()
	if p.redeemFee.IsPositive() {
		fee = amount.Mul(p.redeemFee).Quo(FeeDenominator)
	}
	redeemAmount := amount.Sub(fee)

	n := len(p.assets)
	newBalances := make([]sdkmath.Int, n)
	normOut := make([]sdkmath.Int, n)
	nativeOut := make([]sdkmath.Int, n)
	drained := redeemAmount.GTE(d)
	for i := range p.balances {
		if drained {
			normOut[i] = p.balances[i]
		} else {
			normOut[i] = p.balances[i].Mul(redeemAmount).Quo(d)
		}
		newBalances[i] = p.balances[i].Sub(normOut[i])
		nativeOut[i], err = utils.Denormalize(normOut[i], p.precisions[i], p.rates[i].Value, p.rates[i].Decimals)
		if err != nil {
			return nil, err
		}
	}

	dAfter := sdkmath.ZeroInt()
	if !drained {
		dAfter, err = curve.ComputeD(newBalances, a)
		if err != nil {
			return nil, err
		}
		if p.maxDeltaD.IsPositive() {
			drift := dAfter.Sub(d.Sub(redeemAmount)).Abs()
			if drift.GT(p.maxDeltaD) {
				return nil, types.ErrDeltaDExceeded
			}
		}
	}

	return &redeemProportionCalc{
		newBalances:  newBalances,
		normOut:      normOut,
		nativeOut:    nativeOut,
		redeemAmount: redeemAmount,
		fee:          fee,
		dAfter:       dAfter,
	}, nil
}

type redeemSingleCalc struct {
	newBalances  []sdkmath.Int
	normOut      sdkmath.Int
	nativeOut    sdkmath.Int
	redeemAmount sdkmath.Int
	fee          sdkmath.Int
	dAfter       sdkmath.Int
}

func (p *Pool) calcRedeemSingle(amount sdkmath.Int, j int) (*redeemSingleCalc, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrZeroAmount
	}
	if j < 0 || j >= len(p.assets) {
		return nil, types.ErrTokenNotFound
	}
	if p.totalSupply.IsZero() {
		return nil, types.ErrNoSupply
	}

	a := p.ramp.GetA()
	d, err := curve.ComputeD(p.balances, a)
	if err != nil {
		return nil, err
	}

	fee := sdkmath.ZeroInt()
	if p.redeemFee.IsPositive() {
		fee = amount.Mul(p.redeemFee).Quo(FeeDenominator)
	}
	redeemAmount := amount.Sub(fee)
	if redeemAmount.GTE(d) {
		return nil, types.ErrInsufficientBalance
	}

	dAfter := d.Sub(redeemAmount)
	y, err := curve.ComputeY(p.balances, j, dAfter, a)
	if err != nil {
		return nil, err
	}

	normOut := p.balances[j].Sub(y)
	if !normOut.IsPositive() {
		return nil, types.ErrInsufficientRedeemAmount
	}

	n := len(p.assets)
	newBalances := make([]sdkmath.Int, n)
	copy(newBalances, p.balances)
	newBalances[j] = y

	nativeOut, err := utils.Denormalize(normOut, p.precisions[j], p.rates[j].Value, p.rates[j].Decimals)
	if err != nil {
		return nil, err
	}

	return &redeemSingleCalc{
		newBalances:  newBalances,
		normOut:      normOut,
		nativeOut:    nativeOut,
		redeemAmount: redeemAmount,
		fee:          fee,
		dAfter:       dAfter,
	}, nil
}

type redeemMultiCalc struct {
	normalized   []sdkmath.Int
	newBalances  []sdkmath.Int
	dOld         sdkmath.Int
	dNew         sdkmath.Int
	dDecrease    sdkmath.Int
	redeemAmount sdkmath.Int
	fee          sdkmath.Int
}

func (p *Pool) calcRedeemMulti(amounts []sdkmath.Int) (*redeemMultiCalc, error) {
	n := len(p.assets)
	if len(amounts) != n {
		return nil, types.ErrLengthMismatch
	}
	if p.totalSupply.IsZero() {
		return nil, types.ErrNoSupply
	}

	anyPositive := false
	normalized := make([]sdkmath.Int, n)
	newBalances := make([]sdkmath.Int, n)
	for i, amount := range amounts {
		if amount.IsNil() || amount.IsNegative() {
			return nil, types.ErrZeroAmount
		}
		if amount.IsPositive() {
			anyPositive = true
		}
		norm, err := utils.Normalize(amount, p.precisions[i], p.rates[i].Value, p.rates[i].Decimals)
		if err != nil {
			return nil, err
		}
		normalized[i] = norm
		newBalances[i] = p.balances[i].Sub(norm)
		if !newBalances[i].IsPositive() {
			return nil, types.ErrInsufficientBalance
		}
	}
	if !anyPositive {
		return nil, types.ErrZeroAmount
	}

	a := p.ramp.GetA()
	dOld, err := curve.ComputeD(p.balances, a)
	if err != nil {
		return nil, err
	}
	dNew, err := curve.ComputeD(newBalances, a)
	if err != nil {
		return nil, err
	}

	dDecrease := dOld.Sub(dNew)
	fee := sdkmath.ZeroInt()
	if p.redeemFee.IsPositive() {
		fee = dDecrease.Mul(p.redeemFee).Quo(FeeDenominator)
	}

	return &redeemMultiCalc{
		normalized:   normalized,
		newBalances:  newBalances,
		dOld:         dOld,
		dNew:         dNew,
		dDecrease:    dDecrease,
		redeemAmount: dDecrease.Add(fee),
		fee:          fee,
	}, nil
}
