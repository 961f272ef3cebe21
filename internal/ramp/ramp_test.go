package ramp

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stablekit/stableswap/internal/types"
)

// manualClock lets tests step time forward deterministically.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newController(t *testing.T, a int64) (*Controller, *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Unix(1_700_000_000, 0)}
	c, err := New(sdkmath.NewInt(a), time.Hour, clock.Now)
	require.NoError(t, err)
	return c, clock
}

func TestNew_RejectsBadA(t *testing.T) {
	clock := &manualClock{now: time.Unix(1_700_000_000, 0)}
	_, err := New(sdkmath.ZeroInt(), time.Hour, clock.Now)
	require.ErrorIs(t, err, types.ErrInvalidA)

	_, err = New(sdkmath.NewInt(1_000_001), time.Hour, clock.Now)
	require.ErrorIs(t, err, types.ErrInvalidA)
}

func TestGetA_Interpolation(t *testing.T) {
	c, clock := newController(t, 100)
	require.NoError(t, c.RampA(sdkmath.NewInt(200), clock.Now().Add(10*time.Hour)))

	require.True(t, c.GetA().Equal(sdkmath.NewInt(100)), "at ramp start A is initialA")

	clock.Advance(5 * time.Hour)
	require.True(t, c.GetA().Equal(sdkmath.NewInt(150)), "midpoint, got %s", c.GetA())

	clock.Advance(10 * time.Hour)
	require.True(t, c.GetA().Equal(sdkmath.NewInt(200)), "after end A is futureA")
}

func TestGetA_MonotonicAndBounded(t *testing.T) {
	c, clock := newController(t, 100)
	require.NoError(t, c.RampA(sdkmath.NewInt(60), clock.Now().Add(10*time.Hour)))

	prev := c.GetA()
	for i := 0; i < 20; i++ {
		clock.Advance(30 * time.Minute)
		cur := c.GetA()
		require.True(t, cur.LTE(prev), "downward ramp must be non-increasing")
		require.True(t, cur.GTE(sdkmath.NewInt(60)))
		require.True(t, cur.LTE(sdkmath.NewInt(100)))
		prev = cur
	}
	require.True(t, prev.Equal(sdkmath.NewInt(60)))
}

func TestRampA_AlreadyInProgress(t *testing.T) {
	c, clock := newController(t, 100)
	require.NoError(t, c.RampA(sdkmath.NewInt(150), clock.Now().Add(10*time.Hour)))

	err := c.RampA(sdkmath.NewInt(180), clock.Now().Add(20*time.Hour))
	require.ErrorIs(t, err, types.ErrRampInProgress)
}

func TestRampA_InsufficientTime(t *testing.T) {
	c, clock := newController(t, 100)
	err := c.RampA(sdkmath.NewInt(150), clock.Now().Add(30*time.Minute))
	require.ErrorIs(t, err, types.ErrInsufficientRampTime)
}

func TestRampA_ExcessiveChange(t *testing.T) {
	c, clock := newController(t, 100)

	err := c.RampA(sdkmath.NewInt(201), clock.Now().Add(10*time.Hour))
	require.ErrorIs(t, err, types.ErrExcessiveAChange)

	err = c.RampA(sdkmath.NewInt(49), clock.Now().Add(10*time.Hour))
	require.ErrorIs(t, err, types.ErrExcessiveAChange)

	require.NoError(t, c.RampA(sdkmath.NewInt(200), clock.Now().Add(10*time.Hour)))
}

func TestRampA_LowABranch(t *testing.T) {
	// At A <= 2 the swing limit widens to 10x.
	c, clock := newController(t, 2)
	require.NoError(t, c.RampA(sdkmath.NewInt(20), clock.Now().Add(10*time.Hour)))

	clock.Advance(20 * time.Hour)
	err := c.RampA(sdkmath.NewInt(300), clock.Now().Add(10*time.Hour))
	require.ErrorIs(t, err, types.ErrExcessiveAChange, "A=20 is back on the 2x limit")
}

func TestStopRamp_Freezes(t *testing.T) {
	c, clock := newController(t, 100)
	require.NoError(t, c.RampA(sdkmath.NewInt(200), clock.Now().Add(10*time.Hour)))

	clock.Advance(5 * time.Hour)
	c.StopRamp()
	frozen := c.GetA()
	require.True(t, frozen.Equal(sdkmath.NewInt(150)))
	require.False(t, c.RampInProgress())

	clock.Advance(24 * time.Hour)
	require.True(t, c.GetA().Equal(frozen))

	// A new ramp may start immediately after a stop.
	require.NoError(t, c.RampA(sdkmath.NewInt(250), clock.Now().Add(10*time.Hour)))
}
