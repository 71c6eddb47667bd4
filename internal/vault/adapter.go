package vault

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
)

// DefaultTimeout bounds a single facility call.
const DefaultTimeout = 10 * time.Second

// Adapter places each group's principal in its own facility position.
// Every call is bounded by a timeout and any failure surfaces as
// models.ErrVaultUnavailable. The adapter does not guard against repeated
// withdrawals; the ledger's state machine does.
type Adapter struct {
	facility Facility
	timeout  time.Duration
}

// NewAdapter wraps facility. A non-positive timeout uses DefaultTimeout.
func NewAdapter(facility Facility, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{facility: facility, timeout: timeout}
}

// Position returns the facility position name for a group.
func Position(groupID int64) string {
	return fmt.Sprintf("group-%d", groupID)
}

// Deposit places amount into the group's position.
func (a *Adapter) Deposit(ctx context.Context, groupID int64, amount *big.Int) (*Receipt, error) {
	var receipt *Receipt
	err := a.call(ctx, "deposit", groupID, func(ctx context.Context) error {
		var err error
		receipt, err = a.facility.Deposit(ctx, Position(groupID), amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Vault deposit", "group_id", groupID, "amount", amount.String(), "receipt_id", receipt.ID)
	return receipt, nil
}

// Withdraw redeems the group's whole position.
func (a *Adapter) Withdraw(ctx context.Context, groupID int64) (*big.Int, error) {
	var amount *big.Int
	err := a.call(ctx, "withdraw", groupID, func(ctx context.Context) error {
		var err error
		amount, err = a.facility.Withdraw(ctx, Position(groupID))
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Vault withdraw", "group_id", groupID, "amount", amount.String())
	return amount, nil
}

// Redeem takes amount back out of the group's position.
func (a *Adapter) Redeem(ctx context.Context, groupID int64, amount *big.Int) error {
	err := a.call(ctx, "redeem", groupID, func(ctx context.Context) error {
		return a.facility.Redeem(ctx, Position(groupID), amount)
	})
	if err != nil {
		return err
	}
	slog.Debug("Vault redeem", "group_id", groupID, "amount", amount.String())
	return nil
}

// Balance returns the current value of the group's position.
func (a *Adapter) Balance(ctx context.Context, groupID int64) (*big.Int, error) {
	var amount *big.Int
	err := a.call(ctx, "balance", groupID, func(ctx context.Context) error {
		var err error
		amount, err = a.facility.BalanceOf(ctx, Position(groupID))
		return err
	})
	return amount, err
}

// Yield returns the accrued amount above principal, never negative.
func (a *Adapter) Yield(ctx context.Context, groupID int64, principal *big.Int) (*big.Int, error) {
	balance, err := a.Balance(ctx, groupID)
	if err != nil {
		return nil, err
	}
	delta := new(big.Int).Sub(balance, principal)
	if delta.Sign() < 0 {
		delta.SetInt64(0)
	}
	return delta, nil
}

func (a *Adapter) call(ctx context.Context, op string, groupID int64, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.VaultOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.VaultOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()

	if err != nil {
		slog.Warn("Vault call failed", "operation", op, "group_id", groupID, "error", err)
		return fmt.Errorf("%w: %s group %d: %v", models.ErrVaultUnavailable, op, groupID, err)
	}
	return nil
}
