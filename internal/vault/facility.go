// Package vault adapts an external yield-bearing lending facility to per-group
// positions.
package vault

import (
	"context"
	"errors"
	"math/big"
)

// ErrIlliquid is returned by a facility that cannot currently serve a call.
var ErrIlliquid = errors.New("facility illiquid")

// Receipt acknowledges a deposit.
type Receipt struct {
	ID       string
	Position string
	Amount   *big.Int
	Shares   *big.Int
	At       int64
}

// Facility is an opaque interest-bearing vault. Positions isolate the funds
// of different depositors inside one facility.
//
// Deposited funds accrue monotonically: Withdraw never returns less than
// what was deposited into the position.
type Facility interface {
	Deposit(ctx context.Context, position string, amount *big.Int) (*Receipt, error)

	// Withdraw redeems the whole position and returns the amount paid out.
	Withdraw(ctx context.Context, position string) (*big.Int, error)

	// Redeem pays exactly amount out of the position and keeps the rest
	// invested. It fails if the position is worth less than amount.
	Redeem(ctx context.Context, position string, amount *big.Int) error

	BalanceOf(ctx context.Context, position string) (*big.Int, error)
}
