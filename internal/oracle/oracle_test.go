package oracle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stablekit/stableswap/internal/types"
)

func TestIdentityRate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := NewIdentity(func() time.Time { return now })

	rate, err := p.Rate()
	require.NoError(t, err)
	require.True(t, rate.Value.Equal(sdkmath.OneInt()))
	require.Equal(t, 0, rate.Decimals)
	require.Equal(t, now, rate.Timestamp)
}

func TestFresh_PassesRecentRate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inner := NewStatic(sdkmath.NewInt(1_050_000), 6, now.Add(-time.Minute))
	p := NewFresh(inner, time.Hour, func() time.Time { return now })

	rate, err := p.Rate()
	require.NoError(t, err)
	require.True(t, rate.Value.Equal(sdkmath.NewInt(1_050_000)))
}

func TestFresh_RejectsStaleRate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inner := NewStatic(sdkmath.NewInt(1_050_000), 6, now.Add(-2*time.Hour))
	p := NewFresh(inner, time.Hour, func() time.Time { return now })

	_, err := p.Rate()
	require.ErrorIs(t, err, types.ErrStalePrice)
}

func TestFresh_RejectsNonPositiveRate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inner := NewStatic(sdkmath.ZeroInt(), 6, now)
	p := NewFresh(inner, time.Hour, func() time.Time { return now })

	_, err := p.Rate()
	require.ErrorIs(t, err, types.ErrRateInvalid)
}

func TestHTTPRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rate":"1020000","decimals":6,"timestamp":1700000000}`))
	}))
	defer server.Close()

	p := NewHTTP(server.URL)
	rate, err := p.Rate()
	require.NoError(t, err)
	require.True(t, rate.Value.Equal(sdkmath.NewInt(1_020_000)))
	require.Equal(t, 6, rate.Decimals)
	require.Equal(t, int64(1_700_000_000), rate.Timestamp.Unix())
}

func TestHTTPRate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTP(server.URL).Rate()
	require.Error(t, err)
}

func TestHTTPRate_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":"not-a-number","decimals":6,"timestamp":1700000000}`))
	}))
	defer server.Close()

	_, err := NewHTTP(server.URL).Rate()
	require.Error(t, err)
}
