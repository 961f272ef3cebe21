package guard

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stablekit/stableswap/internal/types"
)

var roles = Roles{Governor: "gov", Curator: "curator", Guardian: "guardian"}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(roles)
	require.NoError(t, r.SetBounds("gov", types.ParamSwapFee, types.Bounds{
		Max:            100_000_000, // 1% of the 1e10 fee denominator
		MaxIncreasePct: 500_000,     // +50% per change
		MaxDecreasePct: 200_000,     // -20% per change
	}))
	return r
}

func TestSetBounds_GovernorOnly(t *testing.T) {
	r := New(roles)
	err := r.SetBounds("curator", types.ParamSwapFee, types.Bounds{})
	require.ErrorIs(t, err, types.ErrNotGovernor)
}

func TestAuthorize_CuratorWithinBounds(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamSwapFee, sdkmath.NewInt(10_000_000), sdkmath.NewInt(14_000_000))
	require.NoError(t, err)
}

func TestAuthorize_CuratorIncreaseTooBig(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamSwapFee, sdkmath.NewInt(10_000_000), sdkmath.NewInt(16_000_000))
	require.ErrorIs(t, err, types.ErrFeeDeltaTooBig)
}

func TestAuthorize_CuratorDecreaseTooBig(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamSwapFee, sdkmath.NewInt(10_000_000), sdkmath.NewInt(7_000_000))
	require.ErrorIs(t, err, types.ErrFeeDeltaTooBig)
}

func TestAuthorize_CuratorAboveAbsoluteMax(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamSwapFee, sdkmath.NewInt(90_000_000), sdkmath.NewInt(120_000_000))
	require.ErrorIs(t, err, types.ErrFeeOutOfBounds)
}

func TestAuthorize_CuratorFromZero(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamSwapFee, sdkmath.ZeroInt(), sdkmath.NewInt(1))
	require.ErrorIs(t, err, types.ErrFeeDeltaTooBig)
}

func TestAuthorize_GovernorUnbounded(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("gov", types.ParamSwapFee, sdkmath.ZeroInt(), sdkmath.NewInt(9_000_000_000))
	require.NoError(t, err)
}

func TestAuthorize_UnknownActor(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("mallory", types.ParamSwapFee, sdkmath.NewInt(1), sdkmath.NewInt(1))
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestAuthorize_NoBoundsRegistered(t *testing.T) {
	r := newRegistry(t)
	err := r.Authorize("curator", types.ParamMintFee, sdkmath.NewInt(1), sdkmath.NewInt(2))
	require.ErrorIs(t, err, types.ErrNoBoundsForParam)
}

func TestAuthorizeRampCancel(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.AuthorizeRampCancel("guardian"))
	require.NoError(t, r.AuthorizeRampCancel("gov"))
	require.ErrorIs(t, r.AuthorizeRampCancel("curator"), types.ErrUnauthorized)
}
