// Package custody provides the fungible-token surface the ledger moves funds through.
package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// Decimals is the number of decimals of the staked stablecoin.
const Decimals = 6

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrInvalidTransfer       = errors.New("invalid transfer amount")
)

// Token is standard fungible-token transfer/approve semantics in smallest units.
type Token interface {
	// TransferFrom moves amount from owner to recipient, spending the
	// allowance owner granted to spender.
	TransferFrom(ctx context.Context, spender, owner, recipient string, amount *big.Int) error

	// Transfer moves amount from sender to recipient.
	Transfer(ctx context.Context, sender, recipient string, amount *big.Int) error

	// Approve sets the amount spender may pull from owner.
	Approve(ctx context.Context, owner, spender string, amount *big.Int) error

	BalanceOf(ctx context.Context, account string) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
}

// Ledger is an in-memory Token. All balances live under one mutex so a
// transfer is atomic with respect to every other operation.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[string]*big.Int
	allowances map[string]map[string]*big.Int
	supply     *big.Int
}

var _ Token = (*Ledger)(nil)

// NewLedger returns an empty token ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]map[string]*big.Int),
		supply:     new(big.Int),
	}
}

// Mint credits amount to account out of thin air. Used by the faucet and
// by the simulated vault to materialize interest.
func (l *Ledger) Mint(account string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(account, amount)
	l.supply.Add(l.supply, amount)
	return nil
}

// Supply returns the total minted amount.
func (l *Ledger) Supply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}

func (l *Ledger) TransferFrom(ctx context.Context, spender, owner, recipient string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowanceLocked(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowed %s, need %s", ErrInsufficientAllowance, spender, allowed, amount)
	}
	if err := l.moveLocked(owner, recipient, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, sender, recipient string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(sender, recipient, amount)
}

func (l *Ledger) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

func (l *Ledger) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (l *Ledger) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if a, ok := l.allowances[owner][spender]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

// allowanceLocked returns the live allowance entry, creating it if needed.
func (l *Ledger) allowanceLocked(owner, spender string) *big.Int {
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]*big.Int)
	}
	a, ok := l.allowances[owner][spender]
	if !ok {
		a = new(big.Int)
		l.allowances[owner][spender] = a
	}
	return a
}

func (l *Ledger) moveLocked(from, to string, amount *big.Int) error {
	bal := l.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		have := new(big.Int)
		if bal != nil {
			have.Set(bal)
		}
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from, have, amount)
	}
	bal.Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(account string, amount *big.Int) {
	b, ok := l.balances[account]
	if !ok {
		b = new(big.Int)
		l.balances[account] = b
	}
	b.Add(b, amount)
}
