package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize_ScalesByPrecisionAndRate(t *testing.T) {
	// 100 USDC (6 decimals) at identity rate -> 100e18.
	precision := sdkmath.NewIntWithDecimal(1, 12)
	got, err := Normalize(sdkmath.NewInt(100_000_000), precision, sdkmath.OneInt(), 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewIntWithDecimal(100, 18), got)

	// Same amount at rate 1.05 (8 rate decimals) -> 105e18.
	rate := sdkmath.NewInt(105_000_000)
	got, err = Normalize(sdkmath.NewInt(100_000_000), precision, rate, 8)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewIntWithDecimal(105, 18), got)
}

func TestNormalize_RejectsBadInputs(t *testing.T) {
	one := sdkmath.OneInt()

	_, err := Normalize(sdkmath.Int{}, one, one, 0)
	require.ErrorIs(t, err, ErrAmountNil)

	_, err = Normalize(sdkmath.NewInt(-1), one, one, 0)
	require.ErrorIs(t, err, ErrAmountNegative)

	_, err = Normalize(one, one, sdkmath.ZeroInt(), 0)
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Normalize(one, one, one, 19)
	require.ErrorIs(t, err, ErrInvalidPrecision)
}

func TestDenormalize_InvertsIdentityRate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := sdkmath.NewInt(rapid.Int64Range(0, 1_000_000_000_000).Draw(t, "amount"))
		decimals := rapid.IntRange(0, 18).Draw(t, "decimals")
		precision := sdkmath.NewIntWithDecimal(1, 18-decimals)

		norm, err := Normalize(amount, precision, sdkmath.OneInt(), 0)
		require.NoError(t, err)
		back, err := Denormalize(norm, precision, sdkmath.OneInt(), 0)
		require.NoError(t, err)
		require.True(t, back.Equal(amount), "round trip changed %s to %s", amount, back)
	})
}

func TestDenormalize_NeverOverpays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := sdkmath.NewInt(rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "amount"))
		decimals := rapid.IntRange(0, 18).Draw(t, "decimals")
		precision := sdkmath.NewIntWithDecimal(1, 18-decimals)
		rate := sdkmath.NewInt(rapid.Int64Range(90_000_000, 120_000_000).Draw(t, "rate"))

		norm, err := Normalize(amount, precision, rate, 8)
		require.NoError(t, err)
		back, err := Denormalize(norm, precision, rate, 8)
		require.NoError(t, err)
		require.True(t, back.LTE(amount), "truncation must not inflate %s to %s", amount, back)
	})
}

func TestSDKIntToFloat64(t *testing.T) {
	v, err := SDKIntToFloat64(sdkmath.NewIntWithDecimal(25, 17), 18)
	require.NoError(t, err)
	require.InDelta(t, 2.5, v, 1e-12)

	_, err = SDKIntToFloat64(sdkmath.NewInt(-1), 18)
	require.ErrorIs(t, err, ErrAmountNegative)

	_, err = SDKIntToFloat64(sdkmath.OneInt(), 19)
	require.ErrorIs(t, err, ErrInvalidPrecision)
}
