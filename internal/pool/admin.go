/*

Governance and operations surface. Fee changes flow through the parameter
guard so a curator can only move within governor-set bounds; amplification
changes additionally face the ramp controller's hard swing limits.

*/

package pool

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/types"
)

// Pause suspends all settlement operations. Admins and the governor may
// pause.
func (p *Pool) Pause(actor string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isAdmin(actor) {
		return types.ErrNotAdmin
	}
	p.paused = true
	p.log.Warn().Str("actor", actor).Msg("Pool paused")
	return nil
}

// Unpause resumes settlement.
func (p *Pool) Unpause(actor string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isAdmin(actor) {
		return types.ErrNotAdmin
	}
	p.paused = false
	p.log.Info().Str("actor", actor).Msg("Pool unpaused")
	return nil
}

// SetMintFee updates the mint fee after the guard clears the actor.
func (p *Pool) SetMintFee(actor string, fee uint64) error {
	return p.setFee(actor, types.ParamMintFee, fee, &p.mintFee)
}

// SetSwapFee updates the swap fee after the guard clears the actor.
func (p *Pool) SetSwapFee(actor string, fee uint64) error {
	return p.setFee(actor, types.ParamSwapFee, fee, &p.swapFee)
}

// SetRedeemFee updates the redeem fee after the guard clears the actor.
func (p *Pool) SetRedeemFee(actor string, fee uint64) error {
	return p.setFee(actor, types.ParamRedeemFee, fee, &p.redeemFee)
}

// SetOffPegFeeMultiplier updates the off-peg multiplier after the guard
// clears the actor.
func (p *Pool) SetOffPegFeeMultiplier(actor string, multiplier uint64) error {
	return p.setFee(actor, types.ParamOffPegFeeMultiplier, multiplier, &p.offPegFeeMultiplier)
}

func (p *Pool) setFee(actor string, key types.ParamKey, value uint64, target *sdkmath.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	proposed := sdkmath.NewIntFromUint64(value)
	if key != types.ParamOffPegFeeMultiplier && proposed.GTE(FeeDenominator) {
		return types.ErrInvalidFee
	}
	if err := p.guard.Authorize(actor, key, *target, proposed); err != nil {
		return err
	}

	p.log.Info().
		Str("actor", actor).
		Str("param", string(key)).
		Str("old", target.String()).
		Str("new", proposed.String()).
		Msg("Parameter updated")
	*target = proposed
	return nil
}

// RampA starts a linear amplification ramp toward newA ending at endTime.
// The guard clears the actor against the A bounds; the controller then
// enforces the hard swing and duration limits regardless of who asked.
func (p *Pool) RampA(actor string, newA sdkmath.Int, endTime time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.guard.Authorize(actor, types.ParamA, p.ramp.GetA(), newA); err != nil {
		return err
	}
	if err := p.ramp.RampA(newA, endTime); err != nil {
		return err
	}
	p.log.Info().
		Str("actor", actor).
		Str("future_a", newA.String()).
		Time("end", endTime).
		Msg("Amplification ramp started")
	return nil
}

// StopRamp freezes the amplification at its current interpolated value.
// Guardian or governor.
func (p *Pool) StopRamp(actor string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.guard.AuthorizeRampCancel(actor); err != nil {
		return err
	}
	p.ramp.StopRamp()
	p.log.Warn().Str("actor", actor).Msg("Amplification ramp stopped")
	return nil
}

// ApproveLoss arms the next rebase to realize a negative delta. Governor
// only; the approval is consumed by a single loss-bearing rebase.
func (p *Pool) ApproveLoss(actor string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if actor != p.roles.Governor {
		return types.ErrNotGovernor
	}
	p.lossApproved = true
	p.log.Warn().Str("actor", actor).Msg("Loss distribution approved for next rebase")
	return nil
}

// AddAdmin grants pause rights. Governor only.
func (p *Pool) AddAdmin(actor, admin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if actor != p.roles.Governor {
		return types.ErrNotGovernor
	}
	p.admins[admin] = true
	return nil
}

// RemoveAdmin revokes pause rights. Governor only.
func (p *Pool) RemoveAdmin(actor, admin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if actor != p.roles.Governor {
		return types.ErrNotGovernor
	}
	delete(p.admins, admin)
	return nil
}

func (p *Pool) isAdmin(actor string) bool {
	return p.admins[actor] || actor == p.roles.Governor
}
