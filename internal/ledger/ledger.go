/*

Rebasing share ledger backing the pool's claim token. Holders own shares;
their claim-token balance is shares * totalSupply / totalShares, so supply
rebases move every balance without touching a single share. Registered pools
drive mint/burn and supply adjustments; a buffer carved from positive rebases
absorbs losses before holder balances are cut.

*/

package ledger

import (
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/types"
)

const (
	// PercentDenominator is the parts-per-million base for bufferPercent.
	PercentDenominator = 1_000_000

	// deadShareCount is permanently assigned to ReservedHolder on the first
	// mint so the share price cannot be manipulated while totalShares is
	// still small.
	deadShareCount = 1000

	// ReservedHolder is the null account the dead shares sit in.
	ReservedHolder = "reserved"
)

type Ledger struct {
	mu  sync.RWMutex
	log zerolog.Logger

	governor string

	shares        map[string]sdkmath.Int
	totalShares   sdkmath.Int
	totalSupply   sdkmath.Int
	totalRewards  sdkmath.Int
	bufferAmount  sdkmath.Int
	bufferBadDebt sdkmath.Int
	bufferPercent sdkmath.Int // ppm of each positive rebase retained

	allowances map[string]map[string]sdkmath.Int
	pools      map[string]bool
}

// New creates an empty ledger owned by the given governor account.
// bufferPercentPPM is the ppm slice of every positive rebase kept in the
// loss-absorption buffer.
func New(governor string, bufferPercentPPM uint64) *Ledger {
	return &Ledger{
		log:           logger.GetForComponent("ledger"),
		governor:      governor,
		shares:        make(map[string]sdkmath.Int),
		totalShares:   sdkmath.ZeroInt(),
		totalSupply:   sdkmath.ZeroInt(),
		totalRewards:  sdkmath.ZeroInt(),
		bufferAmount:  sdkmath.ZeroInt(),
		bufferBadDebt: sdkmath.ZeroInt(),
		bufferPercent: sdkmath.NewIntFromUint64(bufferPercentPPM),
		allowances:    make(map[string]map[string]sdkmath.Int),
		pools:         make(map[string]bool),
	}
}

// RegisterPool authorizes a pool to mint/burn shares and adjust supply.
func (l *Ledger) RegisterPool(actor, poolID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if actor != l.governor {
		return types.ErrNotGovernor
	}
	l.pools[poolID] = true
	l.log.Info().Str("pool", poolID).Msg("Registered pool")
	return nil
}

// RemovePool revokes a pool's authorization.
func (l *Ledger) RemovePool(actor, poolID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if actor != l.governor {
		return types.ErrNotGovernor
	}
	delete(l.pools, poolID)
	return nil
}

// SetBufferPercent updates the ppm slice of positive rebases kept in the buffer.
func (l *Ledger) SetBufferPercent(actor string, ppm uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if actor != l.governor {
		return types.ErrNotGovernor
	}
	if ppm > PercentDenominator {
		return types.ErrFeeOutOfBounds
	}
	l.bufferPercent = sdkmath.NewIntFromUint64(ppm)
	return nil
}

// --- Views ---

func (l *Ledger) TotalShares() sdkmath.Int  { l.mu.RLock(); defer l.mu.RUnlock(); return l.totalShares }
func (l *Ledger) TotalSupply() sdkmath.Int  { l.mu.RLock(); defer l.mu.RUnlock(); return l.totalSupply }
func (l *Ledger) TotalRewards() sdkmath.Int { l.mu.RLock(); defer l.mu.RUnlock(); return l.totalRewards }
func (l *Ledger) BufferAmount() sdkmath.Int { l.mu.RLock(); defer l.mu.RUnlock(); return l.bufferAmount }
func (l *Ledger) BufferBadDebt() sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bufferBadDebt
}

// SharesOf returns the raw share count held by an account.
func (l *Ledger) SharesOf(account string) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sharesOf(account)
}

// BalanceOf returns the claim-token balance: shares * totalSupply / totalShares.
func (l *Ledger) BalanceOf(account string) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.totalShares.IsZero() {
		return sdkmath.ZeroInt()
	}
	return l.sharesOf(account).Mul(l.totalSupply).Quo(l.totalShares)
}

// GetSharesByPeggedToken converts a claim-token amount into shares.
func (l *Ledger) GetSharesByPeggedToken(amount sdkmath.Int) (sdkmath.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sharesByToken(amount)
}

// GetPeggedTokenByShares converts shares into a claim-token amount.
func (l *Ledger) GetPeggedTokenByShares(shares sdkmath.Int) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.totalShares.IsZero() {
		return sdkmath.ZeroInt()
	}
	return shares.Mul(l.totalSupply).Quo(l.totalShares)
}

// --- Pool-gated mutation surface ---

// MintShares credits `to` with shares worth `amount` claim tokens. The first
// mint anchors the share price 1:1 and permanently parks deadShareCount
// shares with ReservedHolder.
func (l *Ledger) MintShares(poolID, to string, amount sdkmath.Int) (sdkmath.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pools[poolID] {
		return sdkmath.ZeroInt(), types.ErrNoPool
	}
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrZeroAmount
	}

	var minted sdkmath.Int
	if l.totalShares.IsZero() {
		dead := sdkmath.NewInt(deadShareCount)
		if amount.LTE(dead) {
			return sdkmath.ZeroInt(), types.ErrInsufficientShares
		}
		minted = amount.Sub(dead)
		l.shares[ReservedHolder] = l.sharesOf(ReservedHolder).Add(dead)
		l.shares[to] = l.sharesOf(to).Add(minted)
		l.totalShares = amount
		l.totalSupply = l.totalSupply.Add(amount)
	} else {
		var err error
		minted, err = l.sharesByToken(amount)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		l.shares[to] = l.sharesOf(to).Add(minted)
		l.totalShares = l.totalShares.Add(minted)
		l.totalSupply = l.totalSupply.Add(amount)
	}

	l.log.Debug().
		Str("pool", poolID).
		Str("to", to).
		Str("amount", amount.String()).
		Str("shares", minted.String()).
		Msg("Minted shares")
	return minted, nil
}

// BurnShares debits `from` by shares worth `amount` claim tokens.
func (l *Ledger) BurnShares(poolID, from string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pools[poolID] {
		return types.ErrNoPool
	}
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}
	burned, err := l.sharesByToken(amount)
	if err != nil {
		return err
	}
	held := l.sharesOf(from)
	if held.LT(burned) {
		return types.ErrInsufficientBalance
	}
	l.shares[from] = held.Sub(burned)
	l.totalShares = l.totalShares.Sub(burned)
	l.totalSupply = l.totalSupply.Sub(amount)
	return nil
}

// AddTotalSupply distributes a positive rebase. Outstanding buffer bad debt
// is repaid first; a bufferPercent slice of the remainder tops up the buffer;
// the rest raises totalSupply (and totalRewards) so every holder's balance
// grows without any share movement.
func (l *Ledger) AddTotalSupply(poolID string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pools[poolID] {
		return types.ErrNoPool
	}
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	remaining := amount
	if l.bufferBadDebt.IsPositive() {
		repay := sdkmath.MinInt(remaining, l.bufferBadDebt)
		l.bufferBadDebt = l.bufferBadDebt.Sub(repay)
		l.bufferAmount = l.bufferAmount.Add(repay)
		remaining = remaining.Sub(repay)
	}
	if remaining.IsPositive() {
		toBuffer := remaining.Mul(l.bufferPercent).Quo(sdkmath.NewInt(PercentDenominator))
		distributed := remaining.Sub(toBuffer)
		l.bufferAmount = l.bufferAmount.Add(toBuffer)
		l.totalSupply = l.totalSupply.Add(distributed)
		l.totalRewards = l.totalRewards.Add(distributed)
	}

	l.log.Debug().
		Str("pool", poolID).
		Str("amount", amount.String()).
		Str("buffer", l.bufferAmount.String()).
		Str("bad_debt", l.bufferBadDebt.String()).
		Msg("Applied positive rebase")
	return nil
}

// RemoveTotalSupply applies a negative rebase. Buffer draws never touch
// holder balances; withDebt records any shortfall as bufferBadDebt to be
// repaid by future positive rebases. The direct path cuts totalSupply and
// with it every holder's balance.
func (l *Ledger) RemoveTotalSupply(poolID string, amount sdkmath.Int, isBuffer, withDebt bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pools[poolID] {
		return types.ErrNoPool
	}
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	if isBuffer {
		if l.bufferAmount.GTE(amount) {
			l.bufferAmount = l.bufferAmount.Sub(amount)
			return nil
		}
		if !withDebt {
			return types.ErrInsufficientBuffer
		}
		shortfall := amount.Sub(l.bufferAmount)
		l.bufferAmount = sdkmath.ZeroInt()
		l.bufferBadDebt = l.bufferBadDebt.Add(shortfall)
		return nil
	}

	if l.totalSupply.LT(amount) {
		return types.ErrInsufficientBalance
	}
	l.totalSupply = l.totalSupply.Sub(amount)
	l.log.Warn().
		Str("pool", poolID).
		Str("amount", amount.String()).
		Msg("Applied negative rebase to total supply")
	return nil
}

// AddBuffer credits the buffer directly without touching supply.
func (l *Ledger) AddBuffer(poolID string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pools[poolID] {
		return types.ErrNoPool
	}
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}
	if l.bufferBadDebt.IsPositive() {
		repay := sdkmath.MinInt(amount, l.bufferBadDebt)
		l.bufferBadDebt = l.bufferBadDebt.Sub(repay)
	}
	l.bufferAmount = l.bufferAmount.Add(amount)
	return nil
}

// WithdrawBuffer pays buffer funds out to `to` by minting new shares at the
// current price. Existing holders are diluted: the buffer backing leaves, the
// recipient's claim enters. Governor only.
func (l *Ledger) WithdrawBuffer(actor, to string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if actor != l.governor {
		return types.ErrNotGovernor
	}
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}
	if l.bufferAmount.LT(amount) {
		return types.ErrInsufficientBuffer
	}
	minted, err := l.sharesByToken(amount)
	if err != nil {
		return err
	}
	l.bufferAmount = l.bufferAmount.Sub(amount)
	l.shares[to] = l.sharesOf(to).Add(minted)
	l.totalShares = l.totalShares.Add(minted)
	l.totalSupply = l.totalSupply.Add(amount)
	l.log.Info().
		Str("to", to).
		Str("amount", amount.String()).
		Msg("Withdrew buffer")
	return nil
}

// --- Holder surface ---

// Transfer moves `amount` claim tokens by converting to shares first.
func (l *Ledger) Transfer(from, to string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	shares, err := l.sharesByToken(amount)
	if err != nil {
		return err
	}
	return l.transferShares(from, to, shares)
}

// TransferShares moves raw shares between holders.
func (l *Ledger) TransferShares(from, to string, shares sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferShares(from, to, shares)
}

// Approve sets the claim-token allowance of spender over owner's balance.
func (l *Ledger) Approve(owner, spender string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.IsNegative() {
		return types.ErrZeroAmount
	}
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]sdkmath.Int)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Allowance returns the remaining claim-token allowance.
func (l *Ledger) Allowance(owner, spender string) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.allowances[owner] == nil {
		return sdkmath.ZeroInt()
	}
	a, ok := l.allowances[owner][spender]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return a
}

// TransferFrom spends allowance to move claim tokens on the owner's behalf.
func (l *Ledger) TransferFrom(spender, from, to string, amount sdkmath.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed := sdkmath.ZeroInt()
	if l.allowances[from] != nil {
		if a, ok := l.allowances[from][spender]; ok {
			allowed = a
		}
	}
	if allowed.LT(amount) {
		return types.ErrInsufficientAllowance
	}
	shares, err := l.sharesByToken(amount)
	if err != nil {
		return err
	}
	if err := l.transferShares(from, to, shares); err != nil {
		return err
	}
	l.allowances[from][spender] = allowed.Sub(amount)
	return nil
}

// --- internals (callers hold l.mu) ---

func (l *Ledger) sharesOf(account string) sdkmath.Int {
	s, ok := l.shares[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return s
}

func (l *Ledger) sharesByToken(amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrZeroAmount
	}
	if l.totalSupply.IsZero() {
		return sdkmath.ZeroInt(), types.ErrNoSupply
	}
	return amount.Mul(l.totalShares).Quo(l.totalSupply), nil
}

func (l *Ledger) transferShares(from, to string, shares sdkmath.Int) error {
	if !shares.IsPositive() {
		return types.ErrZeroAmount
	}
	held := l.sharesOf(from)
	if held.LT(shares) {
		return types.ErrInsufficientShares
	}
	l.shares[from] = held.Sub(shares)
	l.shares[to] = l.sharesOf(to).Add(shares)
	return nil
}
