/*

Invariant solver for the StableSwap curve:

    A * n^n * sum(x_i) + D = A * D * n^n + D^(n+1) / (n^n * prod(x_i))

Neither D nor a single balance is solvable in closed form for n > 2, so both
are found with Newton's method. All arithmetic is on cosmossdk.io/math Int,
which is big.Int backed, so intermediate products cannot wrap.

*/

package curve

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/types"
)

// maxIterations caps Newton's method. Convergence typically takes a handful
// of rounds; hitting the cap means a degenerate balance or pathological A
// slipped past input validation.
const maxIterations = 255

var one = sdkmath.OneInt()

// ComputeD solves the invariant D for the given normalized balances and
// amplification coefficient. Returns zero when all balances are zero.
func ComputeD(balances []sdkmath.Int, a sdkmath.Int) (sdkmath.Int, error) {
	n := int64(len(balances))
	if n < 2 || !a.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrInvalidA
	}

	sum := sdkmath.ZeroInt()
	for _, x := range balances {
		if x.IsNegative() {
			return sdkmath.ZeroInt(), types.ErrImbalancedPool
		}
		sum = sum.Add(x)
	}
	if sum.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	nInt := sdkmath.NewInt(n)
	ann := annCoefficient(a, n)

	d := sum
	for i := 0; i < maxIterations; i++ {
		dProd := d
		for _, x := range balances {
			if !x.IsPositive() {
				return sdkmath.ZeroInt(), types.ErrImbalancedPool
			}
			dProd = dProd.Mul(d).Quo(x.Mul(nInt))
		}

		dPrev := d
		// D = (Ann*S + n*Dprod) * D / ((Ann-1)*D + (n+1)*Dprod)
		numer := ann.Mul(sum).Add(dProd.Mul(nInt)).Mul(d)
		denom := ann.Sub(one).Mul(d).Add(dProd.Mul(nInt.Add(one)))
		d = numer.Quo(denom)

		if withinOne(d, dPrev) {
			return d, nil
		}
	}
	return sdkmath.ZeroInt(), types.ErrConvergence
}

// ComputeY solves for the single balance at index j that satisfies the
// invariant at the given D, holding every other balance fixed. balances[j]
// itself is ignored. Used both for swaps (D held constant, one input balance
// raised) and single-asset redemptions (D reduced).
func ComputeY(balances []sdkmath.Int, j int, d, a sdkmath.Int) (sdkmath.Int, error) {
	n := int64(len(balances))
	if j < 0 || int64(j) >= n {
		return sdkmath.ZeroInt(), types.ErrTokenNotFound
	}
	if !a.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrInvalidA
	}
	if !d.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrImbalancedPool
	}

	nInt := sdkmath.NewInt(n)
	ann := annCoefficient(a, n)

	c := d
	sum := sdkmath.ZeroInt()
	for k, x := range balances {
		if k == j {
			continue
		}
		if !x.IsPositive() {
			return sdkmath.ZeroInt(), types.ErrImbalancedPool
		}
		sum = sum.Add(x)
		c = c.Mul(d).Quo(x.Mul(nInt))
	}
	c = c.Mul(d).Quo(ann.Mul(nInt))
	b := sum.Add(d.Quo(ann))

	y := d
	for i := 0; i < maxIterations; i++ {
		yPrev := y
		// y = (y^2 + c) / (2y + b - D)
		numer := y.Mul(y).Add(c)
		denom := y.Add(y).Add(b).Sub(d)
		if !denom.IsPositive() {
			return sdkmath.ZeroInt(), types.ErrConvergence
		}
		y = numer.Quo(denom)

		if withinOne(y, yPrev) {
			return y, nil
		}
	}
	return sdkmath.ZeroInt(), types.ErrConvergence
}

// annCoefficient is A * n^n.
func annCoefficient(a sdkmath.Int, n int64) sdkmath.Int {
	nn := sdkmath.OneInt()
	nInt := sdkmath.NewInt(n)
	for i := int64(0); i < n; i++ {
		nn = nn.Mul(nInt)
	}
	return a.Mul(nn)
}

// withinOne reports |a - b| <= 1, the solver's convergence criterion.
func withinOne(a, b sdkmath.Int) bool {
	diff := a.Sub(b)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	return diff.LTE(one)
}
