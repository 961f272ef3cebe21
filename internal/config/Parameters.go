/*

This file contains the default engine parameters.

These values are used when no active parameter set is found in the database
during initialization; governance changes are persisted as new versions and
take precedence on the next start.

*/

package config

import (
	"github.com/stablekit/stableswap/internal/types"
)

// DefaultEngineParameters is the baseline parameter set for a new pool.
var DefaultEngineParameters = types.EngineParameters{
	// Amplification coefficient. 100 keeps pricing close to constant-sum
	// for assets that actually hold their peg, while still letting the
	// curve steepen when balances drift apart.
	A: 100,

	// Fees in parts per 1e10.
	MintFee:   0,          // deposits are free by default
	SwapFee:   40_000_000, // 0.4% per trade
	RedeemFee: 10_000_000, // 0.1% on the way out

	// Multiplier applied to fees when the pool trades away from peg.
	// Stored and governed; a zero value leaves fees flat.
	OffPegFeeMultiplier: 0,

	// Minimum duration of an amplification ramp. A week gives integrators
	// and holders time to react to the changing price curve.
	MinRampTimeSeconds: 7 * 24 * 3600,

	// Reconciliation noise filters, in the normalized 18-decimal unit.
	// Zero means every non-zero drift is classified and settled.
	FeeErrorMargin:   "0",
	YieldErrorMargin: "0",

	// Hard bound on how far D may move in one settlement or rebase.
	// 1000 whole units; a manipulated rate source trips this before it can
	// move the supply.
	MaxDeltaD: "1000000000000000000000",

	// Share of every positive rebase carved into the insurance buffer,
	// in parts per million. 5% builds a cushion for small depegs without
	// noticeably dragging holder yield.
	BufferPercent: 50_000,
}
