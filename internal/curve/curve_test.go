package curve

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stablekit/stableswap/internal/types"
)

func unit(v int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(v, 18)
}

func TestComputeD_EqualBalances(t *testing.T) {
	// With perfectly balanced reserves the curve degenerates to the sum.
	balances := []sdkmath.Int{unit(1000), unit(1000)}
	d, err := ComputeD(balances, sdkmath.NewInt(100))
	require.NoError(t, err)

	diff := d.Sub(unit(2000))
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	require.True(t, diff.LTE(sdkmath.NewInt(2)), "D=%s expected ~%s", d, unit(2000))
}

func TestComputeD_ZeroBalances(t *testing.T) {
	d, err := ComputeD([]sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()}, sdkmath.NewInt(100))
	require.NoError(t, err)
	require.True(t, d.IsZero())
}

func TestComputeD_RejectsSingleZeroBalance(t *testing.T) {
	_, err := ComputeD([]sdkmath.Int{unit(1000), sdkmath.ZeroInt()}, sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrImbalancedPool)
}

func TestComputeD_RejectsBadA(t *testing.T) {
	_, err := ComputeD([]sdkmath.Int{unit(1), unit(1)}, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidA)
}

func TestComputeY_SwapDirection(t *testing.T) {
	a := sdkmath.NewInt(100)
	balances := []sdkmath.Int{unit(1000), unit(1000)}
	d, err := ComputeD(balances, a)
	require.NoError(t, err)

	// Raise balance 0 by 100 units; solve for balance 1 at constant D.
	post := []sdkmath.Int{balances[0].Add(unit(100)), balances[1]}
	y, err := ComputeY(post, 1, d, a)
	require.NoError(t, err)

	dy := balances[1].Sub(y)
	require.True(t, dy.IsPositive(), "swap output must be positive")
	require.True(t, dy.LT(unit(100)), "swap output must be below input, got %s", dy)
}

func TestComputeY_RestoresInvariant(t *testing.T) {
	a := sdkmath.NewInt(100)
	balances := []sdkmath.Int{unit(5000), unit(3000), unit(4000)}
	d, err := ComputeD(balances, a)
	require.NoError(t, err)

	post := []sdkmath.Int{balances[0].Add(unit(250)), balances[1], balances[2]}
	y, err := ComputeY(post, 2, d, a)
	require.NoError(t, err)
	post[2] = y

	d2, err := ComputeD(post, a)
	require.NoError(t, err)

	diff := d2.Sub(d)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	// Truncating division leaks at most a few units per Newton pass.
	require.True(t, diff.LTE(sdkmath.NewInt(1000)), "|D'-D|=%s", diff)
}

func TestComputeY_BadIndex(t *testing.T) {
	balances := []sdkmath.Int{unit(1), unit(1)}
	_, err := ComputeY(balances, 2, unit(2), sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrTokenNotFound)
}

func TestConservation_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := sdkmath.NewInt(rapid.Int64Range(1, 1_000_000).Draw(t, "a"))
		n := rapid.IntRange(2, 4).Draw(t, "n")

		balances := make([]sdkmath.Int, n)
		for i := range balances {
			balances[i] = unit(rapid.Int64Range(100, 10_000_000).Draw(t, "balance"))
		}

		d, err := ComputeD(balances, a)
		if err != nil {
			t.Fatalf("ComputeD: %v", err)
		}

		// D always sits between the constant-product and constant-sum bounds.
		sum := sdkmath.ZeroInt()
		for _, x := range balances {
			sum = sum.Add(x)
		}
		if d.GT(sum) {
			t.Fatalf("D %s exceeds sum %s", d, sum)
		}

		// A fee-free balance shift along the curve preserves D.
		in := rapid.IntRange(0, n-1).Draw(t, "in")
		out := rapid.IntRange(0, n-1).Filter(func(v int) bool { return v != in }).Draw(t, "out")
		dx := unit(rapid.Int64Range(1, 1000).Draw(t, "dx"))

		post := make([]sdkmath.Int, n)
		copy(post, balances)
		post[in] = post[in].Add(dx)
		y, err := ComputeY(post, out, d, a)
		if err != nil {
			t.Fatalf("ComputeY: %v", err)
		}
		post[out] = y

		d2, err := ComputeD(post, a)
		if err != nil {
			t.Fatalf("ComputeD after shift: %v", err)
		}
		diff := d2.Sub(d)
		if diff.IsNegative() {
			diff = diff.Neg()
		}
		if diff.GT(sdkmath.NewInt(100_000)) {
			t.Fatalf("invariant drifted by %s", diff)
		}
	})
}
