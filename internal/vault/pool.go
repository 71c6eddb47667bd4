package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mmynk/lingostake/internal/custody"
)

const (
	secondsPerYear = 365 * 24 * 60 * 60
	basisPoints    = 10_000
)

// Pool is a simulated lending facility. Depositors receive shares at the
// current exchange rate; interest accrues to total assets, raising the value
// of every share. Token movements go through a custody.Ledger between the
// depositor account and the pool's own account.
type Pool struct {
	mu sync.Mutex

	token     *custody.Ledger
	account   string
	depositor string
	rateBps   int64
	clock     clockwork.Clock

	totalAssets *big.Int
	totalShares *big.Int
	shares      map[string]*big.Int
	principal   map[string]*big.Int
	lastAccrual time.Time
	available   bool
}

var _ Facility = (*Pool)(nil)

// PoolConfig configures a simulated pool.
type PoolConfig struct {
	// Account is the pool's own token account.
	Account string
	// Depositor is the account funds are pulled from and paid back to.
	Depositor string
	// RateBps is the simple annual interest rate in basis points.
	RateBps int64
	Clock   clockwork.Clock
}

// NewPool creates an empty pool.
func NewPool(token *custody.Ledger, cfg PoolConfig) *Pool {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pool{
		token:       token,
		account:     cfg.Account,
		depositor:   cfg.Depositor,
		rateBps:     cfg.RateBps,
		clock:       clock,
		totalAssets: new(big.Int),
		totalShares: new(big.Int),
		shares:      make(map[string]*big.Int),
		principal:   make(map[string]*big.Int),
		lastAccrual: clock.Now(),
		available:   true,
	}
}

// SetAvailable toggles liquidity. An unavailable pool fails every call.
func (p *Pool) SetAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = available
}

// Accrue adds amount of interest to the pool, shared by all positions in
// proportion to their shares.
func (p *Pool) Accrue(amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.token.Mint(p.account, amount); err != nil {
		return err
	}
	p.totalAssets.Add(p.totalAssets, amount)
	return nil
}

// TotalAssets returns the assets under management after accrual.
func (p *Pool) TotalAssets() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accrueLocked()
	return new(big.Int).Set(p.totalAssets)
}

func (p *Pool) Deposit(ctx context.Context, position string, amount *big.Int) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, ErrIlliquid
	}
	p.accrueLocked()

	minted := new(big.Int).Set(amount)
	if p.totalShares.Sign() > 0 {
		minted.Mul(amount, p.totalShares)
		minted.Quo(minted, p.totalAssets)
	}
	if minted.Sign() == 0 {
		return nil, fmt.Errorf("deposit of %s mints no shares", amount)
	}

	if err := p.token.Transfer(ctx, p.depositor, p.account, amount); err != nil {
		return nil, fmt.Errorf("failed to pull deposit: %w", err)
	}

	p.totalAssets.Add(p.totalAssets, amount)
	p.totalShares.Add(p.totalShares, minted)
	p.add(p.shares, position, minted)
	p.add(p.principal, position, amount)

	return &Receipt{
		ID:       uuid.New().String(),
		Position: position,
		Amount:   new(big.Int).Set(amount),
		Shares:   minted,
		At:       p.clock.Now().Unix(),
	}, nil
}

func (p *Pool) Withdraw(ctx context.Context, position string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, ErrIlliquid
	}
	p.accrueLocked()

	held, ok := p.shares[position]
	if !ok || held.Sign() == 0 {
		return new(big.Int), nil
	}
	assets := p.valueLocked(position)

	if err := p.token.Transfer(ctx, p.account, p.depositor, assets); err != nil {
		return nil, fmt.Errorf("failed to pay out withdrawal: %w", err)
	}

	p.totalAssets.Sub(p.totalAssets, assets)
	p.totalShares.Sub(p.totalShares, held)
	delete(p.shares, position)
	delete(p.principal, position)

	return assets, nil
}

func (p *Pool) Redeem(ctx context.Context, position string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("redeem amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return ErrIlliquid
	}
	p.accrueLocked()

	held, ok := p.shares[position]
	if !ok || held.Sign() == 0 {
		return fmt.Errorf("position %s is empty", position)
	}
	value := p.valueLocked(position)
	if value.Cmp(amount) < 0 {
		return fmt.Errorf("position %s is worth %s, cannot redeem %s", position, value, amount)
	}

	// Round the burned shares up so the remaining shares are never worth
	// more than before.
	burn := new(big.Int).Mul(amount, p.totalShares)
	burn.Add(burn, new(big.Int).Sub(p.totalAssets, big.NewInt(1)))
	burn.Quo(burn, p.totalAssets)
	if burn.Cmp(held) > 0 || value.Cmp(amount) == 0 {
		burn.Set(held)
	}

	if err := p.token.Transfer(ctx, p.account, p.depositor, amount); err != nil {
		return fmt.Errorf("failed to pay out redemption: %w", err)
	}

	p.totalAssets.Sub(p.totalAssets, amount)
	p.totalShares.Sub(p.totalShares, burn)
	held.Sub(held, burn)
	if held.Sign() == 0 {
		delete(p.shares, position)
		delete(p.principal, position)
		return nil
	}
	if floor := p.principal[position]; floor != nil {
		floor.Sub(floor, amount)
		if floor.Sign() < 0 {
			floor.SetInt64(0)
		}
	}
	return nil
}

func (p *Pool) BalanceOf(ctx context.Context, position string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, ErrIlliquid
	}
	p.accrueLocked()

	if held, ok := p.shares[position]; !ok || held.Sign() == 0 {
		return new(big.Int), nil
	}
	return p.valueLocked(position), nil
}

// valueLocked converts a position's shares to assets. Share rounding can
// leave a position a unit short of its principal; the principal floor keeps
// withdrawals monotonic and is capped by what the pool holds.
func (p *Pool) valueLocked(position string) *big.Int {
	held := p.shares[position]
	assets := new(big.Int).Mul(held, p.totalAssets)
	assets.Quo(assets, p.totalShares)

	if held.Cmp(p.totalShares) == 0 {
		assets.Set(p.totalAssets)
	}
	if floor := p.principal[position]; floor != nil && assets.Cmp(floor) < 0 {
		assets.Set(floor)
	}
	if assets.Cmp(p.totalAssets) > 0 {
		assets.Set(p.totalAssets)
	}
	return assets
}

// accrueLocked applies simple interest since the last accrual. The accrual
// timestamp only advances when interest is actually credited so that short
// intervals are not truncated away.
func (p *Pool) accrueLocked() {
	now := p.clock.Now()
	if p.rateBps <= 0 || p.totalAssets.Sign() == 0 {
		p.lastAccrual = now
		return
	}
	elapsed := int64(now.Sub(p.lastAccrual) / time.Second)
	if elapsed <= 0 {
		return
	}

	interest := new(big.Int).Mul(p.totalAssets, big.NewInt(p.rateBps))
	interest.Mul(interest, big.NewInt(elapsed))
	interest.Quo(interest, big.NewInt(basisPoints*secondsPerYear))
	if interest.Sign() == 0 {
		return
	}

	// Minting into our own account cannot fail for a positive amount.
	_ = p.token.Mint(p.account, interest)
	p.totalAssets.Add(p.totalAssets, interest)
	p.lastAccrual = now
}

func (p *Pool) add(m map[string]*big.Int, key string, amount *big.Int) {
	v, ok := m[key]
	if !ok {
		v = new(big.Int)
		m[key] = v
	}
	v.Add(v, amount)
}
