/*

Amplification coefficient ramp controller. A moves between values only along
scheduled linear ramps so the pricing curve can never jump; a hard doubling/
halving limit on each ramp request protects the pool independently of the
softer governance bounds.

*/

package ramp

import (
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/types"
)

// MaxA bounds the amplification coefficient to (0, 1e6].
var MaxA = sdkmath.NewInt(1_000_000)

// Hard per-ramp swing limits: the target may at most double (or halve) the
// current interpolated value. Below lowAThreshold larger relative swings are
// deliberately allowed, since doubling a tiny A barely moves the curve.
var (
	maxAChange     = sdkmath.NewInt(2)
	maxAChangeLowA = sdkmath.NewInt(10)
	lowAThreshold  = sdkmath.NewInt(2)
)

type Controller struct {
	mu    sync.RWMutex
	log   zerolog.Logger
	clock func() time.Time

	initialA     sdkmath.Int
	futureA      sdkmath.Int
	initialATime time.Time
	futureATime  time.Time

	minRampTime time.Duration
}

// New creates a controller holding A steady at initialA.
func New(initialA sdkmath.Int, minRampTime time.Duration, clock func() time.Time) (*Controller, error) {
	if clock == nil {
		clock = time.Now
	}
	if !initialA.IsPositive() || initialA.GT(MaxA) {
		return nil, types.ErrInvalidA
	}
	now := clock()
	return &Controller{
		log:          logger.GetForComponent("ramp"),
		clock:        clock,
		initialA:     initialA,
		futureA:      initialA,
		initialATime: now,
		futureATime:  now,
		minRampTime:  minRampTime,
	}, nil
}

// GetA returns the current amplification coefficient: futureA once the ramp
// has completed, initialA before it starts, and the time-weighted linear
// interpolation in between, truncated toward initialA.
func (c *Controller) GetA() sdkmath.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interpolate(c.clock())
}

// RampA schedules a linear ramp from the current interpolated A to newA
// ending at endTime. Only one ramp may be in flight.
func (c *Controller) RampA(newA sdkmath.Int, endTime time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if now.Before(c.futureATime) {
		return types.ErrRampInProgress
	}
	if endTime.Sub(now) < c.minRampTime {
		return types.ErrInsufficientRampTime
	}
	if !newA.IsPositive() || newA.GT(MaxA) {
		return types.ErrInvalidA
	}

	current := c.interpolate(now)
	limit := maxAChange
	if current.LTE(lowAThreshold) {
		limit = maxAChangeLowA
	}
	if newA.GT(current) {
		if newA.GT(current.Mul(limit)) {
			return types.ErrExcessiveAChange
		}
	} else {
		if newA.Mul(limit).LT(current) {
			return types.ErrExcessiveAChange
		}
	}

	c.initialA = current
	c.futureA = newA
	c.initialATime = now
	c.futureATime = endTime

	c.log.Info().
		Str("from", current.String()).
		Str("to", newA.String()).
		Time("until", endTime).
		Msg("Started amplification ramp")
	return nil
}

// StopRamp freezes A at its current interpolated value immediately. Usable
// as an emergency brake while a ramp is in flight.
func (c *Controller) StopRamp() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	current := c.interpolate(now)
	c.initialA = current
	c.futureA = current
	c.initialATime = now
	c.futureATime = now

	c.log.Warn().Str("a", current.String()).Msg("Stopped amplification ramp")
}

// RampInProgress reports whether a ramp is still active.
func (c *Controller) RampInProgress() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clock().Before(c.futureATime)
}

// interpolate computes A at the given instant. Caller holds c.mu.
func (c *Controller) interpolate(now time.Time) sdkmath.Int {
	if !now.Before(c.futureATime) {
		return c.futureA
	}
	if !now.After(c.initialATime) {
		return c.initialA
	}

	elapsed := sdkmath.NewInt(int64(now.Sub(c.initialATime)))
	total := sdkmath.NewInt(int64(c.futureATime.Sub(c.initialATime)))
	if c.futureA.GT(c.initialA) {
		return c.initialA.Add(c.futureA.Sub(c.initialA).Mul(elapsed).Quo(total))
	}
	return c.initialA.Sub(c.initialA.Sub(c.futureA).Mul(elapsed).Quo(total))
}
