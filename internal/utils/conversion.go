/*

This file contains common utility functions for converting between native
asset units, the normalized 18-decimal accounting unit, and display values.

*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrInvalidRate      = errors.New("rate is not positive")
)

// Normalize scales a native amount into the common 18-decimal unit and
// applies the asset's exchange rate. precision is the 10^(18-decimals)
// multiplier, rate/rateDecimals come from the asset's rate source (identity
// assets pass rate=1, rateDecimals=0). Division truncates toward zero.
func Normalize(amount, precision, rate sdkmath.Int, rateDecimals int) (sdkmath.Int, error) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if !rate.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidRate
	}
	if rateDecimals < 0 || rateDecimals > 18 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: rate decimals %d", ErrInvalidPrecision, rateDecimals)
	}
	scaled := amount.Mul(precision).Mul(rate)
	return scaled.Quo(pow10(rateDecimals)), nil
}

// Denormalize converts a normalized amount back into native units at the
// given precision and rate, truncating toward zero.
func Denormalize(amount, precision, rate sdkmath.Int, rateDecimals int) (sdkmath.Int, error) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if !rate.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidRate
	}
	if rateDecimals < 0 || rateDecimals > 18 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: rate decimals %d", ErrInvalidPrecision, rateDecimals)
	}
	return amount.Mul(pow10(rateDecimals)).Quo(rate).Quo(precision), nil
}

// SDKIntToFloat64 converts a normalized SDK Int to float64 for display and
// API payloads only. Settlement math never goes through float64.
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDecFromInt(pow10(precision))

	result := decAmount.Quo(factor)
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, err
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}

func pow10(exp int) sdkmath.Int {
	if exp == 0 {
		return sdkmath.OneInt()
	}
	return sdkmath.NewIntWithDecimal(1, exp)
}
