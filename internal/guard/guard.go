/*

Bounded parameter gate. The governor registers per-parameter bounds once;
after that a lower-trust curator may move parameters only within the bounds,
while the governor keeps an unbounded path for calibration and emergencies
and a guardian may cancel an in-flight amplification ramp unconditionally.

*/

package guard

import (
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/types"
)

// PctDenominator is the parts-per-million base for relative change bounds.
var PctDenominator = sdkmath.NewInt(1_000_000)

// Roles names the three governance identities consulted by the gate.
type Roles struct {
	Governor string
	Curator  string
	Guardian string
}

type Registry struct {
	mu  sync.RWMutex
	log zerolog.Logger

	roles  Roles
	bounds map[types.ParamKey]types.Bounds
}

// New creates a registry with no bounds configured. Until the governor sets
// bounds for a parameter, the curator cannot move it at all.
func New(roles Roles) *Registry {
	return &Registry{
		log:    logger.GetForComponent("guard"),
		roles:  roles,
		bounds: make(map[types.ParamKey]types.Bounds),
	}
}

// SetBounds installs or replaces the bounds for one parameter. Governor only.
func (r *Registry) SetBounds(actor string, key types.ParamKey, b types.Bounds) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor != r.roles.Governor {
		return types.ErrNotGovernor
	}
	r.bounds[key] = b
	r.log.Info().
		Str("param", string(key)).
		Uint64("max", b.Max).
		Uint64("max_increase_ppm", b.MaxIncreasePct).
		Uint64("max_decrease_ppm", b.MaxDecreasePct).
		Msg("Updated parameter bounds")
	return nil
}

// Bounds returns the configured bounds for a parameter.
func (r *Registry) Bounds(key types.ParamKey) (types.Bounds, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bounds[key]
	return b, ok
}

// Authorize decides whether actor may move the parameter from current to
// proposed. The governor passes unconditionally; the curator passes only
// within the registered relative and absolute bounds; everyone else is
// rejected.
func (r *Registry) Authorize(actor string, key types.ParamKey, current, proposed sdkmath.Int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch actor {
	case r.roles.Governor:
		return nil
	case r.roles.Curator:
	default:
		return types.ErrUnauthorized
	}

	b, ok := r.bounds[key]
	if !ok {
		return types.ErrNoBoundsForParam
	}

	if proposed.GT(sdkmath.NewIntFromUint64(b.Max)) {
		return types.ErrFeeOutOfBounds
	}

	if proposed.GT(current) {
		// A relative bound on growth from zero is meaningless; the governor
		// has to seed the first non-zero value.
		if current.IsZero() {
			return types.ErrFeeDeltaTooBig
		}
		deltaPct := proposed.Sub(current).Mul(PctDenominator).Quo(current)
		if deltaPct.GT(sdkmath.NewIntFromUint64(b.MaxIncreasePct)) {
			return types.ErrFeeDeltaTooBig
		}
	} else if proposed.LT(current) {
		deltaPct := current.Sub(proposed).Mul(PctDenominator).Quo(current)
		if deltaPct.GT(sdkmath.NewIntFromUint64(b.MaxDecreasePct)) {
			return types.ErrFeeDeltaTooBig
		}
	}
	return nil
}

// AuthorizeRampCancel decides whether actor may cancel an in-flight ramp.
func (r *Registry) AuthorizeRampCancel(actor string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if actor == r.roles.Guardian || actor == r.roles.Governor {
		return nil
	}
	return types.ErrUnauthorized
}
