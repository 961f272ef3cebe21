package router

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stablekit/stableswap/internal/guard"
	"github.com/stablekit/stableswap/internal/ledger"
	"github.com/stablekit/stableswap/internal/pool"
	"github.com/stablekit/stableswap/internal/ramp"
	"github.com/stablekit/stableswap/internal/types"
)

const governor = "governor"

func unit(v int64) sdkmath.Int {
	return sdkmath.NewInt(v).Mul(sdkmath.NewIntWithDecimal(1, 18))
}

type captureRecorder struct {
	receipts []*types.SettlementReceipt
	fail     bool
}

func (c *captureRecorder) RecordReceipt(r *types.SettlementReceipt) error {
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.receipts = append(c.receipts, r)
	return nil
}

func newRouter(t *testing.T, rec Recorder) (*Router, *ledger.Ledger) {
	t.Helper()

	led := ledger.New(governor, 0)
	require.NoError(t, led.RegisterPool(governor, "pool-1"))
	rampCtl, err := ramp.New(sdkmath.NewInt(100), 0, time.Now)
	require.NoError(t, err)
	roles := guard.Roles{Governor: governor}

	p, err := pool.New(pool.Config{
		ID: "pool-1",
		Assets: []types.Asset{
			{Symbol: "usdx", Denom: "uusdx", Decimals: 18},
			{Symbol: "usdy", Denom: "uusdy", Decimals: 18},
		},
		Params: types.EngineParameters{A: 100},
		Roles:  roles,
		Guard:  guard.New(roles),
		Ramp:   rampCtl,
		Ledger: led,
	})
	require.NoError(t, err)

	return New(p, led, rec), led
}

func TestMintTo_ForwardsClaim(t *testing.T) {
	rec := &captureRecorder{}
	r, led := newRouter(t, rec)

	receipt, err := r.MintTo("alice", "bob", []sdkmath.Int{unit(1000), unit(1000)}, sdkmath.ZeroInt())
	require.NoError(t, err)

	require.True(t, led.BalanceOf("alice").IsZero())
	require.Equal(t, receipt.ClaimDelta, led.BalanceOf("bob"))
	require.Len(t, rec.receipts, 1)
	require.Equal(t, types.KindMint, rec.receipts[0].Kind)
}

func TestRouter_PropagatesEngineErrors(t *testing.T) {
	r, _ := newRouter(t, nil)

	_, err := r.Swap("alice", 0, 0, unit(1), sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrSameToken)

	_, err = r.Mint("alice", []sdkmath.Int{unit(1)}, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrLengthMismatch)
}

func TestRouter_RecordsEverySettlement(t *testing.T) {
	rec := &captureRecorder{}
	r, _ := newRouter(t, rec)

	_, err := r.Mint("alice", []sdkmath.Int{unit(1000), unit(1000)}, sdkmath.ZeroInt())
	require.NoError(t, err)
	_, err = r.Swap("alice", 0, 1, unit(10), sdkmath.ZeroInt())
	require.NoError(t, err)
	_, err = r.RedeemProportion("alice", unit(100), []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()})
	require.NoError(t, err)
	_, err = r.RedeemSingle("alice", unit(10), 0, sdkmath.ZeroInt())
	require.NoError(t, err)
	_, err = r.RedeemMulti("alice", []sdkmath.Int{unit(5), unit(5)}, unit(100))
	require.NoError(t, err)
	_, err = r.Donate("alice", unit(1))
	require.NoError(t, err)

	require.Len(t, rec.receipts, 6)
}

func TestRouter_RecorderFailureDoesNotFailSettlement(t *testing.T) {
	rec := &captureRecorder{fail: true}
	r, _ := newRouter(t, rec)

	_, err := r.Mint("alice", []sdkmath.Int{unit(1000), unit(1000)}, sdkmath.ZeroInt())
	require.NoError(t, err)
}
