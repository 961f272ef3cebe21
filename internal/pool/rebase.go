/*

Rebase reconciles the pool against fresh exchange rates. Accumulated trading
fees and externally accrued yield both show up as invariant growth; the two
are separated so operators can account for them independently, and genuine
losses are only realized with explicit governor approval, drawing on the
insurance buffer first.

*/

package pool

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/curve"
	"github.com/stablekit/stableswap/internal/oracle"
	"github.com/stablekit/stableswap/internal/types"
	"github.com/stablekit/stableswap/internal/utils"
)

// Rebase fetches fresh rates, reprices the raw reserves, and credits (or,
// with approval, realizes) the difference against the claim supply.
//
// Fee is the growth of the invariant at the rates already applied: it can
// only come from trading activity since the last reconciliation. Yield is
// the additional growth uncovered by moving to the fresh rates. Either
// component inside its error margin is treated as rounding noise and left
// for a later rebase to pick up.
func (p *Pool) Rebase() (*types.RebaseSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}
	if p.totalSupply.IsZero() {
		return nil, types.ErrNoSupply
	}

	n := len(p.assets)
	newRates := make([]oracle.Rate, n)
	expected := make([]sdkmath.Int, n)
	for i := range p.assets {
		rate, err := p.providers[i].Rate()
		if err != nil {
			return nil, err
		}
		newRates[i] = rate
		expected[i], err = utils.Normalize(p.rawBalances[i], p.precisions[i], rate.Value, rate.Decimals)
		if err != nil {
			return nil, err
		}
	}

	a := p.ramp.GetA()
	dCur, err := curve.ComputeD(p.balances, a)
	if err != nil {
		return nil, err
	}
	dExp, err := curve.ComputeD(expected, a)
	if err != nil {
		return nil, err
	}

	fee := dCur.Sub(p.totalSupply)
	if fee.Abs().LTE(p.feeErrorMargin) {
		fee = sdkmath.ZeroInt()
	}
	yield := dExp.Sub(dCur)
	if yield.Abs().LTE(p.yieldErrorMargin) {
		yield = sdkmath.ZeroInt()
	}
	total := fee.Add(yield)

	if p.maxDeltaD.IsPositive() && total.Abs().GT(p.maxDeltaD) {
		p.log.Error().
			Str("delta", total.String()).
			Str("max_delta_d", p.maxDeltaD.String()).
			Msg("Rebase delta exceeds safety bound, refusing")
		return nil, types.ErrDeltaDExceeded
	}

	switch {
	case total.IsPositive():
		if err := p.ledger.AddTotalSupply(p.id, total); err != nil {
			return nil, err
		}
		p.totalSupply = p.totalSupply.Add(total)
	case total.IsNegative():
		if !p.lossApproved {
			return nil, types.ErrLossNotApproved
		}
		if err := p.realizeLoss(total.Neg()); err != nil {
			return nil, err
		}
		p.totalSupply = p.totalSupply.Add(total)
		p.lossApproved = false
	}

	p.balances = expected
	p.rates = newRates

	p.log.Info().
		Str("fee", fee.String()).
		Str("yield", yield.String()).
		Str("d", dExp.String()).
		Msg("Rebased")
	p.metrics.RebasesTotal.Inc()
	p.observeState(dExp)

	return &types.RebaseSnapshot{
		Timestamp:     p.clock(),
		Balances:      expected,
		D:             dExp,
		TotalSupply:   p.totalSupply,
		FeeAmount:     fee,
		YieldAmount:   yield,
		BufferAmount:  p.ledger.BufferAmount(),
		BufferBadDebt: p.ledger.BufferBadDebt(),
	}, nil
}

// realizeLoss absorbs a loss into the insurance buffer first; only the
// uncovered remainder cuts into holder balances.
func (p *Pool) realizeLoss(loss sdkmath.Int) error {
	buffered := sdkmath.MinInt(loss, p.ledger.BufferAmount())
	if buffered.IsPositive() {
		if err := p.ledger.RemoveTotalSupply(p.id, buffered, true, false); err != nil {
			return err
		}
	}
	rest := loss.Sub(buffered)
	if rest.IsPositive() {
		if err := p.ledger.RemoveTotalSupply(p.id, rest, false, false); err != nil {
			return err
		}
	}
	p.log.Warn().
		Str("loss", loss.String()).
		Str("buffer_absorbed", buffered.String()).
		Str("holder_cut", rest.String()).
		Msg("Realized loss")
	return nil
}
