/*

This file contains the tunable engine parameters and the governance bounds
that gate how far each one may move in a single bounded change.

*/

package types

// ParamKey identifies a guarded parameter in the bounds registry.
type ParamKey string

const (
	ParamA                   ParamKey = "amplification"
	ParamMintFee             ParamKey = "mint_fee"
	ParamSwapFee             ParamKey = "swap_fee"
	ParamRedeemFee           ParamKey = "redeem_fee"
	ParamOffPegFeeMultiplier ParamKey = "off_peg_fee_multiplier"
)

// EngineParameters holds all tunable values for one pool deployment.
// Fees are parts per FeeDenominator (1e10); margins and MaxDeltaD are in the
// normalized 18-decimal unit; percentages are parts per million.
type EngineParameters struct {
	A                   uint64 `json:"a"`
	MintFee             uint64 `json:"mint_fee"`
	SwapFee             uint64 `json:"swap_fee"`
	RedeemFee           uint64 `json:"redeem_fee"`
	OffPegFeeMultiplier uint64 `json:"off_peg_fee_multiplier"`

	MinRampTimeSeconds int64 `json:"min_ramp_time_seconds"`

	FeeErrorMargin   string `json:"fee_error_margin"`   // 18-dec integer string
	YieldErrorMargin string `json:"yield_error_margin"` // 18-dec integer string
	MaxDeltaD        string `json:"max_delta_d"`        // 18-dec integer string

	BufferPercent uint64 `json:"buffer_percent"` // ppm carved from positive rebases
}

// Bounds constrains a single guarded parameter. Max is an absolute cap in the
// parameter's own unit; the percentage fields are parts per million of the
// current value, applied per bounded change in the requested direction.
type Bounds struct {
	Max            uint64 `json:"max"`
	MaxDecreasePct uint64 `json:"max_decrease_pct"`
	MaxIncreasePct uint64 `json:"max_increase_pct"`
}
