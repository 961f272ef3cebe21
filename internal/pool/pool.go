/*

The invariant engine. A Pool owns per-asset balances in a normalized
18-decimal unit, prices trades on the StableSwap curve, separates trading
fees from externally accruing yield, and drives the share ledger that backs
the claim token. Every settlement operation is serialized behind one mutex
and either commits fully or leaves no trace.

*/

package pool

import (
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stablekit/stableswap/internal/guard"
	"github.com/stablekit/stableswap/internal/ledger"
	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/oracle"
	"github.com/stablekit/stableswap/internal/ramp"
	"github.com/stablekit/stableswap/internal/types"
)

// FeeDenominator is the parts base for all fee rates.
var FeeDenominator = sdkmath.NewIntWithDecimal(1, 10)

// Config assembles everything a pool needs at construction.
type Config struct {
	ID     string
	Assets []types.Asset
	// Providers maps 1:1 onto Assets; nil entries mean the asset is not
	// yield-bearing and trades at the identity rate.
	Providers []oracle.Provider
	Params    types.EngineParameters
	Roles     guard.Roles
	Admins    []string
	Guard     *guard.Registry
	Ramp      *ramp.Controller
	Ledger    *ledger.Ledger
	Clock     func() time.Time
}

type Pool struct {
	mu  sync.RWMutex
	log zerolog.Logger

	id     string
	clock  func() time.Time
	assets []types.Asset

	precisions  []sdkmath.Int
	providers   []oracle.Provider
	rates       []oracle.Rate // last applied rate per asset
	rawBalances []sdkmath.Int // native units actually held
	balances    []sdkmath.Int // normalized at `rates`

	totalSupply sdkmath.Int // claim value attributable to this pool (tracks D)

	mintFee             sdkmath.Int
	swapFee             sdkmath.Int
	redeemFee           sdkmath.Int
	offPegFeeMultiplier sdkmath.Int

	feeErrorMargin   sdkmath.Int
	yieldErrorMargin sdkmath.Int
	maxDeltaD        sdkmath.Int

	minRampTimeSeconds int64
	bufferPercent      uint64

	paused       bool
	lossApproved bool
	admins       map[string]bool
	roles        guard.Roles

	guard   *guard.Registry
	ramp    *ramp.Controller
	ledger  *ledger.Ledger
	metrics *Metrics
}

// New validates the configuration, reads an initial rate from every provider,
// and returns an empty active pool.
func New(cfg Config) (*Pool, error) {
	n := len(cfg.Assets)
	if n < 2 {
		return nil, types.ErrLengthMismatch
	}
	seen := make(map[string]bool, n)
	for _, a := range cfg.Assets {
		if a.Denom == "" || seen[a.Denom] {
			return nil, types.ErrDuplicateToken
		}
		seen[a.Denom] = true
	}
	if len(cfg.Providers) != 0 && len(cfg.Providers) != n {
		return nil, types.ErrLengthMismatch
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	p := &Pool{
		log:         logger.GetForComponent("pool"),
		id:          cfg.ID,
		clock:       clock,
		assets:      cfg.Assets,
		precisions:  make([]sdkmath.Int, n),
		providers:   make([]oracle.Provider, n),
		rates:       make([]oracle.Rate, n),
		rawBalances: make([]sdkmath.Int, n),
		balances:    make([]sdkmath.Int, n),
		totalSupply: sdkmath.ZeroInt(),
		admins:      make(map[string]bool),
		roles:       cfg.Roles,
		guard:       cfg.Guard,
		ramp:        cfg.Ramp,
		ledger:      cfg.Ledger,
		metrics:     EngineMetrics(),
	}

	for i, a := range cfg.Assets {
		p.precisions[i] = a.Precision()
		p.rawBalances[i] = sdkmath.ZeroInt()
		p.balances[i] = sdkmath.ZeroInt()
		if len(cfg.Providers) == n && cfg.Providers[i] != nil {
			p.providers[i] = cfg.Providers[i]
		} else {
			p.providers[i] = oracle.NewIdentity(clock)
		}
		rate, err := p.providers[i].Rate()
		if err != nil {
			return nil, err
		}
		p.rates[i] = rate
	}

	if err := p.setFees(cfg.Params); err != nil {
		return nil, err
	}

	p.feeErrorMargin = intFromString(cfg.Params.FeeErrorMargin)
	p.yieldErrorMargin = intFromString(cfg.Params.YieldErrorMargin)
	p.maxDeltaD = intFromString(cfg.Params.MaxDeltaD)
	p.minRampTimeSeconds = cfg.Params.MinRampTimeSeconds
	p.bufferPercent = cfg.Params.BufferPercent

	for _, admin := range cfg.Admins {
		p.admins[admin] = true
	}
	return p, nil
}

func (p *Pool) setFees(params types.EngineParameters) error {
	fees := []uint64{params.MintFee, params.SwapFee, params.RedeemFee}
	for _, f := range fees {
		if sdkmath.NewIntFromUint64(f).GTE(FeeDenominator) {
			return types.ErrInvalidFee
		}
	}
	p.mintFee = sdkmath.NewIntFromUint64(params.MintFee)
	p.swapFee = sdkmath.NewIntFromUint64(params.SwapFee)
	p.redeemFee = sdkmath.NewIntFromUint64(params.RedeemFee)
	p.offPegFeeMultiplier = sdkmath.NewIntFromUint64(params.OffPegFeeMultiplier)
	return nil
}

// ID returns the pool's ledger registration identity.
func (p *Pool) ID() string { return p.id }

// Mint deposits native amounts of each asset and mints claim tokens for the
// resulting invariant growth, net of the mint fee. The fee is not burned: it
// raises totalSupply, diluting the growth across all holders.
func (p *Pool) Mint(account string, amounts []sdkmath.Int, minMintAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}

	calc, err := p.calcMint(amounts)
	if err != nil {
		return nil, err
	}
	if calc.netAmount.LT(minMintAmount) {
		return nil, types.ErrInsufficientMintAmount
	}

	if _, err := p.ledger.MintShares(p.id, account, calc.netAmount); err != nil {
		return nil, err
	}
	if calc.fee.IsPositive() {
		if err := p.ledger.AddTotalSupply(p.id, calc.fee); err != nil {
			return nil, err
		}
	}

	p.balances = calc.newBalances
	for i := range amounts {
		p.rawBalances[i] = p.rawBalances[i].Add(amounts[i])
	}
	p.totalSupply = p.totalSupply.Add(calc.mintAmount)

	p.log.Info().
		Str("account", account).
		Str("mint_amount", calc.mintAmount.String()).
		Str("fee", calc.fee.String()).
		Msg("Minted")
	p.metrics.MintsTotal.Inc()
	p.observeFee(calc.fee)
	p.observeState(calc.dNew)

	return &types.SettlementReceipt{
		Kind:        types.KindMint,
		Account:     account,
		Timestamp:   p.clock(),
		AmountsIn:   calc.normalized,
		TokenIn:     -1,
		TokenOut:    -1,
		ClaimDelta:  calc.netAmount,
		FeeCharged:  calc.fee,
		D:           calc.dNew,
		TotalSupply: p.totalSupply,
	}, nil
}

// Swap trades dx native units of asset i for asset j at constant D. The fee
// is taken from the output and retained in the pool's balance of j, raising
// D slightly; that rise is credited to all holders through the ledger.
func (p *Pool) Swap(account string, i, j int, dx, minDy sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}

	calc, err := p.calcSwap(i, j, dx)
	if err != nil {
		return nil, err
	}
	if calc.dyOut.LT(minDy) {
		return nil, types.ErrInsufficientSwapOutAmount
	}

	deltaD := calc.dAfter.Sub(calc.dBefore)
	if deltaD.IsPositive() {
		if err := p.ledger.AddTotalSupply(p.id, deltaD); err != nil {
			return nil, err
		}
		p.totalSupply = p.totalSupply.Add(deltaD)
	}

	p.balances = calc.newBalances
	p.rawBalances[i] = p.rawBalances[i].Add(dx)
	p.rawBalances[j] = p.rawBalances[j].Sub(calc.nativeOut)

	p.log.Info().
		Str("account", account).
		Int("token_in", i).
		Int("token_out", j).
		Str("dx", dx.String()).
		Str("dy", calc.dyOut.String()).
		Str("fee", calc.fee.String()).
		Msg("Swapped")
	p.metrics.SwapsTotal.Inc()
	p.observeFee(calc.fee)
	p.observeState(calc.dAfter)

	return &types.SettlementReceipt{
		Kind:        types.KindSwap,
		Account:     account,
		Timestamp:   p.clock(),
		AmountsIn:   []sdkmath.Int{calc.normDx},
		AmountsOut:  []sdkmath.Int{calc.dyOut},
		TokenIn:     i,
		TokenOut:    j,
		ClaimDelta:  sdkmath.ZeroInt(),
		FeeCharged:  calc.fee,
		D:           calc.dAfter,
		TotalSupply: p.totalSupply,
	}, nil
}

// RedeemProportion burns `amount` claim tokens and pays out every asset
// pro rata. The redeem fee stays in totalSupply, redistributed to remaining
// holders.
func (p *Pool) RedeemProportion(account string, amount sdkmath.Int, minAmounts []sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}
	if len(minAmounts) != len(p.assets) {
		return nil, types.ErrLengthMismatch
	}

	calc, err := p.calcRedeemProportion(amount)
	if err != nil {
		return nil, err
	}
	for i, payout := range calc.nativeOut {
		if payout.LT(minAmounts[i]) {
			return nil, types.ErrInsufficientRedeemAmount
		}
	}

	if err := p.ledger.BurnShares(p.id, account, amount); err != nil {
		return nil, err
	}
	if calc.fee.IsPositive() {
		if err := p.ledger.AddTotalSupply(p.id, calc.fee); err != nil {
			return nil, err
		}
	}

	p.balances = calc.newBalances
	for i := range calc.nativeOut {
		p.rawBalances[i] = p.rawBalances[i].Sub(calc.nativeOut[i])
	}
	p.totalSupply = p.totalSupply.Sub(calc.redeemAmount)

	p.log.Info().
		Str("account", account).
		Str("amount", amount.String()).
		Str("fee", calc.fee.String()).
		Msg("Redeemed proportionally")
	p.metrics.RedeemsTotal.Inc()
	p.observeFee(calc.fee)
	p.observeState(calc.dAfter)

	return &types.SettlementReceipt{
		Kind:        types.KindRedeemProportion,
		Account:     account,
		Timestamp:   p.clock(),
		AmountsOut:  calc.normOut,
		TokenIn:     -1,
		TokenOut:    -1,
		ClaimDelta:  amount.Neg(),
		FeeCharged:  calc.fee,
		D:           calc.dAfter,
		TotalSupply: p.totalSupply,
	}, nil
}

// RedeemSingle burns `amount` claim tokens and pays out a single asset,
// solving the curve for the balance that keeps the invariant at D minus the
// redeemed value.
func (p *Pool) RedeemSingle(account string, amount sdkmath.Int, j int, minRedeemAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}

	calc, err := p.calcRedeemSingle(amount, j)
	if err != nil {
		return nil, err
	}
	if calc.nativeOut.LT(minRedeemAmount) {
		return nil, types.ErrInsufficientRedeemAmount
	}

	if err := p.ledger.BurnShares(p.id, account, amount); err != nil {
		return nil, err
	}
	if calc.fee.IsPositive() {
		if err := p.ledger.AddTotalSupply(p.id, calc.fee); err != nil {
			return nil, err
		}
	}

	p.balances = calc.newBalances
	p.rawBalances[j] = p.rawBalances[j].Sub(calc.nativeOut)
	p.totalSupply = p.totalSupply.Sub(calc.redeemAmount)

	p.log.Info().
		Str("account", account).
		Int("token_out", j).
		Str("amount", amount.String()).
		Str("payout", calc.nativeOut.String()).
		Msg("Redeemed single")
	p.metrics.RedeemsTotal.Inc()
	p.observeFee(calc.fee)
	p.observeState(calc.dAfter)

	return &types.SettlementReceipt{
		Kind:        types.KindRedeemSingle,
		Account:     account,
		Timestamp:   p.clock(),
		AmountsOut:  []sdkmath.Int{calc.normOut},
		TokenIn:     -1,
		TokenOut:    j,
		ClaimDelta:  amount.Neg(),
		FeeCharged:  calc.fee,
		D:           calc.dAfter,
		TotalSupply: p.totalSupply,
	}, nil
}

// RedeemMulti is the inverse of Mint: the caller names exact native amounts
// to withdraw and burns whatever claim value that costs, fee included, up to
// maxRedeemAmount.
func (p *Pool) RedeemMulti(account string, amounts []sdkmath.Int, maxRedeemAmount sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}

	calc, err := p.calcRedeemMulti(amounts)
	if err != nil {
		return nil, err
	}
	if calc.redeemAmount.GT(maxRedeemAmount) {
		return nil, types.ErrMaxRedeemAmount
	}

	if err := p.ledger.BurnShares(p.id, account, calc.redeemAmount); err != nil {
		return nil, err
	}
	if calc.fee.IsPositive() {
		if err := p.ledger.AddTotalSupply(p.id, calc.fee); err != nil {
			return nil, err
		}
	}

	p.balances = calc.newBalances
	for i := range amounts {
		p.rawBalances[i] = p.rawBalances[i].Sub(amounts[i])
	}
	p.totalSupply = p.totalSupply.Sub(calc.dDecrease)

	p.log.Info().
		Str("account", account).
		Str("redeem_amount", calc.redeemAmount.String()).
		Str("fee", calc.fee.String()).
		Msg("Redeemed multi")
	p.metrics.RedeemsTotal.Inc()
	p.observeFee(calc.fee)
	p.observeState(calc.dNew)

	return &types.SettlementReceipt{
		Kind:        types.KindRedeemMulti,
		Account:     account,
		Timestamp:   p.clock(),
		AmountsOut:  calc.normalized,
		TokenIn:     -1,
		TokenOut:    -1,
		ClaimDelta:  calc.redeemAmount.Neg(),
		FeeCharged:  calc.fee,
		D:           calc.dNew,
		TotalSupply: p.totalSupply,
	}, nil
}

// Donate burns the caller's claim tokens and redistributes their value to
// all remaining holders through the supply.
func (p *Pool) Donate(account string, amount sdkmath.Int) (*types.SettlementReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil, types.ErrPoolPaused
	}
	if !amount.IsPositive() {
		return nil, types.ErrZeroAmount
	}

	if err := p.ledger.BurnShares(p.id, account, amount); err != nil {
		return nil, err
	}
	if err := p.ledger.AddTotalSupply(p.id, amount); err != nil {
		return nil, err
	}

	p.log.Info().
		Str("account", account).
		Str("amount", amount.String()).
		Msg("Donated to holders")

	return &types.SettlementReceipt{
		Kind:        types.KindDonate,
		Account:     account,
		Timestamp:   p.clock(),
		TokenIn:     -1,
		TokenOut:    -1,
		ClaimDelta:  amount.Neg(),
		FeeCharged:  sdkmath.ZeroInt(),
		D:           p.totalSupply,
		TotalSupply: p.totalSupply,
	}, nil
}

func intFromString(s string) sdkmath.Int {
	if s == "" {
		return sdkmath.ZeroInt()
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return v
}
