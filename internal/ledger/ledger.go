// Package ledger owns the group staking state machine: creating groups,
// staking into them, settling them through the completion gate and the
// distribution engine, and paying out one-shot claims.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mmynk/lingostake/internal/custody"
	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/internal/oracle"
	"github.com/mmynk/lingostake/internal/storage"
	"github.com/mmynk/lingostake/internal/vault"
)

// SystemCaller identifies settlements triggered by the expiry sweeper.
const SystemCaller = "system:sweeper"

// Config holds ledger settings.
type Config struct {
	// Escrow is the custody account that holds staked funds between
	// the member's wallet and the vault.
	Escrow string

	// GracePeriod is how long after a group's duration only the agent or
	// the creator may settle it. After that anyone may.
	GracePeriod time.Duration

	Clock clockwork.Clock
}

// Ledger implements the staking operations on top of a store, a token,
// a vault adapter and the completion gate.
type Ledger struct {
	store  storage.Store
	token  custody.Token
	vault  *vault.Adapter
	gate   *oracle.Gate
	escrow string
	grace  time.Duration
	clock  clockwork.Clock
	locks  *lockTable
}

// New creates a Ledger.
func New(store storage.Store, token custody.Token, adapter *vault.Adapter, gate *oracle.Gate, cfg Config) *Ledger {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{
		store:  store,
		token:  token,
		vault:  adapter,
		gate:   gate,
		escrow: cfg.Escrow,
		grace:  cfg.GracePeriod,
		clock:  clock,
		locks:  newLockTable(),
	}
}

// Escrow returns the custody account members approve for staking.
func (l *Ledger) Escrow() string {
	return l.escrow
}

// CreateGroupParams describes a new group.
type CreateGroupParams struct {
	Creator       string
	StakingAmount *big.Int
	Duration      int64 // seconds
	MaxMembers    int
	Mode          models.Mode
	Title         string
	Language      string
}

// CreateGroup validates params and opens an active group.
func (l *Ledger) CreateGroup(ctx context.Context, p CreateGroupParams) (*models.Group, error) {
	if p.StakingAmount == nil || p.StakingAmount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if p.Duration <= 0 {
		return nil, models.ErrInvalidDuration
	}
	if p.MaxMembers < 2 {
		return nil, models.ErrInsufficientCapacity
	}
	if _, err := models.ParseMode(string(p.Mode)); err != nil {
		return nil, err
	}

	g := models.NewGroup(p.Creator, p.StakingAmount, p.Duration, p.MaxMembers, p.Mode)
	g.Title = p.Title
	g.Language = p.Language
	g.CreatedAt = l.clock.Now().Unix()

	if err := l.store.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	metrics.GroupsCreatedTotal.WithLabelValues(string(g.Mode)).Inc()
	slog.Info("Group created",
		"group_id", g.ID,
		"creator", g.Creator,
		"staking_amount", g.StakingAmount.String(),
		"max_members", g.MaxMembers,
		"mode", g.Mode,
	)
	return g, nil
}

// Stake locks the group's staking amount from account into custody and the
// vault. The membership, the group totals and the fund movements commit
// together: a failed transfer or deposit leaves no membership behind, and a
// membership that fails to commit after the deposit has its funds unwound.
func (l *Ledger) Stake(ctx context.Context, groupID int64, account string) (*models.Membership, error) {
	lock, release := l.locks.group(groupID)
	defer release()
	lock.Lock()
	defer lock.Unlock()

	g, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsCompleted {
		return nil, fmt.Errorf("%w: %d", models.ErrAlreadyCompleted, groupID)
	}

	m := models.NewMembership(groupID, account, g.StakingAmount, l.clock.Now().Unix())
	moved := false
	err = l.store.AddStake(ctx, m, func(g *models.Group, m *models.Membership) error {
		if err := l.token.TransferFrom(ctx, l.escrow, account, l.escrow, m.Stake); err != nil {
			return fmt.Errorf("failed to collect stake: %w", err)
		}
		if _, err := l.vault.Deposit(ctx, g.ID, m.Stake); err != nil {
			l.refundStake(ctx, g.ID, account, m.Stake)
			return err
		}
		moved = true
		return nil
	})
	metrics.StakesTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		if moved {
			l.unwindStake(ctx, groupID, account, m.Stake, err)
		}
		return nil, err
	}

	slog.Info("Member staked",
		"group_id", groupID,
		"account", account,
		"seq", m.Seq,
		"amount", m.Stake.String(),
	)
	return m, nil
}

// unwindStake takes back a stake whose membership did not commit: the
// amount is redeemed from the group's position and refunded to account.
func (l *Ledger) unwindStake(ctx context.Context, groupID int64, account string, amount *big.Int, cause error) {
	ctx = context.WithoutCancel(ctx)
	slog.Warn("Unwinding stake", "group_id", groupID, "account", account, "amount", amount.String(), "cause", cause)

	if err := l.vault.Redeem(ctx, groupID, amount); err != nil {
		slog.Error("Stake funds left in vault without membership",
			"group_id", groupID, "account", account, "amount", amount.String(), "error", err)
		return
	}
	l.refundStake(ctx, groupID, account, amount)
}

// refundStake returns amount from escrow to account and gives back the
// allowance the stake consumed.
func (l *Ledger) refundStake(ctx context.Context, groupID int64, account string, amount *big.Int) {
	ctx = context.WithoutCancel(ctx)
	if err := l.token.Transfer(ctx, l.escrow, account, amount); err != nil {
		slog.Error("Stake refund failed", "group_id", groupID, "account", account, "error", err)
		return
	}

	allowed, err := l.token.Allowance(ctx, account, l.escrow)
	if err == nil {
		err = l.token.Approve(ctx, account, l.escrow, allowed.Add(allowed, amount))
	}
	if err != nil {
		slog.Error("Failed to restore stake allowance", "group_id", groupID, "account", account, "error", err)
	}
}

// GetGroupInfo returns a group. Read-only.
func (l *Ledger) GetGroupInfo(ctx context.Context, groupID int64) (*models.Group, error) {
	return l.store.GetGroup(ctx, groupID)
}

// GetUserInfo returns an account's membership in a group. Read-only.
func (l *Ledger) GetUserInfo(ctx context.Context, groupID int64, account string) (*models.Membership, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.GetMembership(ctx, groupID, account)
}

// ListGroups returns every group, oldest first.
func (l *Ledger) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return l.store.ListGroups(ctx)
}

// ListMembers returns a group's members in join order.
func (l *Ledger) ListMembers(ctx context.Context, groupID int64) ([]*models.Membership, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListMemberships(ctx, groupID)
}

// ListPayouts returns the claims paid from a group.
func (l *Ledger) ListPayouts(ctx context.Context, groupID int64) ([]*models.Payout, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListPayouts(ctx, groupID)
}

// PendingYield returns the yield accrued so far on an active group's
// principal. Completed groups report their settled yield.
func (l *Ledger) PendingYield(ctx context.Context, groupID int64) (*big.Int, error) {
	g, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsCompleted {
		return g.YieldTotal, nil
	}
	return l.vault.Yield(ctx, groupID, g.VaultPrincipal)
}
