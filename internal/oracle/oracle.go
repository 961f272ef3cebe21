/*

Exchange rate sources for yield-bearing pool assets. A provider answers "how
much of the reference unit is one token worth" together with the decimal
precision of that answer. Providers are untrusted: callers bound staleness
and fail the operation rather than settle against an old rate.

*/

package oracle

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/types"
)

// Rate is one observation from a rate source.
type Rate struct {
	Value     sdkmath.Int `json:"value"`
	Decimals  int         `json:"decimals"`
	Timestamp time.Time   `json:"timestamp"`
}

// Provider returns the current exchange rate for the asset it is bound to.
type Provider interface {
	Rate() (Rate, error)
}

// Identity is the provider for non yield-bearing assets: one token is always
// worth exactly one reference unit.
type Identity struct {
	clock func() time.Time
}

func NewIdentity(clock func() time.Time) *Identity {
	if clock == nil {
		clock = time.Now
	}
	return &Identity{clock: clock}
}

func (p *Identity) Rate() (Rate, error) {
	return Rate{Value: sdkmath.OneInt(), Decimals: 0, Timestamp: p.clock()}, nil
}

// Static serves a fixed rate that tests and manual calibration can move.
type Static struct {
	rate Rate
}

func NewStatic(value sdkmath.Int, decimals int, at time.Time) *Static {
	return &Static{rate: Rate{Value: value, Decimals: decimals, Timestamp: at}}
}

// Set replaces the served rate.
func (p *Static) Set(value sdkmath.Int, decimals int, at time.Time) {
	p.rate = Rate{Value: value, Decimals: decimals, Timestamp: at}
}

func (p *Static) Rate() (Rate, error) {
	return p.rate, nil
}

// Fresh wraps a provider with a staleness bound. A rate older than maxAge at
// read time surfaces ErrStalePrice instead of the cached value.
type Fresh struct {
	inner  Provider
	maxAge time.Duration
	clock  func() time.Time
}

func NewFresh(inner Provider, maxAge time.Duration, clock func() time.Time) *Fresh {
	if clock == nil {
		clock = time.Now
	}
	return &Fresh{inner: inner, maxAge: maxAge, clock: clock}
}

func (p *Fresh) Rate() (Rate, error) {
	rate, err := p.inner.Rate()
	if err != nil {
		return Rate{}, err
	}
	if rate.Value.IsNil() || !rate.Value.IsPositive() || rate.Decimals < 0 || rate.Decimals > 18 {
		return Rate{}, types.ErrRateInvalid
	}
	if p.clock().Sub(rate.Timestamp) > p.maxAge {
		return Rate{}, types.ErrStalePrice
	}
	return rate, nil
}
