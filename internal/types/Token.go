/*

This is a custom type for the pegged assets a pool holds, together with the
precision data needed to normalize native amounts into the common 18-decimal
accounting unit.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// TargetDecimals is the common accounting precision every asset is normalized to.
const TargetDecimals = 18

type Asset struct {
	Symbol   string `json:"symbol"`   // e.g., "usdx"
	Denom    string `json:"denom"`    // e.g., "uusdx"
	Decimals int    `json:"decimals"` // native decimal places, e.g., 6
}

// Precision returns the multiplier that scales one native unit of the asset
// into the 18-decimal accounting unit.
func (a Asset) Precision() sdkmath.Int {
	exp := TargetDecimals - a.Decimals
	if exp <= 0 {
		return sdkmath.OneInt()
	}
	return sdkmath.NewIntWithDecimal(1, exp)
}
