package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/mmynk/lingostake/internal/calculator"
	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/internal/oracle"
)

// Settlement is the outcome of settling a group.
type Settlement struct {
	Group        *models.Group
	Members      []*models.Membership
	Distribution *calculator.Distribution
}

// Settle withdraws a group's vault position and fixes every member's
// entitlement. It is allowed once the group's duration has elapsed; reaching
// capacity does not allow early settlement. The agent and the creator may
// settle right away, anyone else only after the grace period. When v is
// non-nil the caller must be the agent and v is recorded as the group's
// attestation in the same transaction as the settlement.
//
// Settlement is all-or-nothing: on a vault failure nothing changes and the
// call can be retried.
func (l *Ledger) Settle(ctx context.Context, groupID int64, caller string, v *Verdicts) (*Settlement, error) {
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

	now := l.clock.Now()
	if now.Unix() < g.SettleableAt() {
		return nil, fmt.Errorf("%w: settleable at %s", models.ErrNotSettleable,
			time.Unix(g.SettleableAt(), 0).UTC().Format(time.RFC3339))
	}
	if err := l.authorizeSettle(g, caller, now); err != nil {
		return nil, err
	}

	var inline, attestation *models.Attestation
	if v != nil {
		if inline, err = l.buildAttestation(ctx, groupID, caller, *v); err != nil {
			return nil, err
		}
		attestation = inline
	} else if attestation, err = l.store.GetAttestation(ctx, groupID); err != nil {
		return nil, err
	}

	var (
		withdrawn *big.Int
		result    *Settlement
	)
	err = l.store.SettleGroup(ctx, groupID, inline, func(g *models.Group, members []*models.Membership) error {
		oracle.Apply(attestation, members)

		stakes := make([]calculator.Stake, len(members))
		principal := new(big.Int)
		for i, m := range members {
			stakes[i] = calculator.Stake{Account: m.Account, Amount: m.Stake, Completed: m.Completed}
			principal.Add(principal, m.Stake)
		}
		if principal.Cmp(g.VaultPrincipal) != 0 {
			return fmt.Errorf("%w: members staked %s, vault principal %s",
				models.ErrConservation, principal, g.VaultPrincipal)
		}

		out, err := l.vault.Withdraw(ctx, g.ID)
		if err != nil {
			return err
		}
		withdrawn = out

		d, err := calculator.Distribute(g.Mode, withdrawn, stakes)
		if err != nil {
			return err
		}
		if _, err := calculator.Audit(d); err != nil {
			return err
		}

		for i, m := range members {
			m.PrincipalOwed = d.Allocations[i].Principal
			m.YieldAllocation = d.Allocations[i].Yield
		}
		g.IsActive = false
		g.IsCompleted = true
		g.VaultPrincipal = new(big.Int)
		g.SettledAt = now.Unix()
		g.SettledBy = caller
		g.WithdrawnTotal = d.Withdrawn
		g.YieldTotal = d.YieldTotal

		result = &Settlement{Group: g, Members: members, Distribution: d}
		return nil
	})
	metrics.SettlementsTotal.WithLabelValues(string(g.Mode), metrics.Status(err)).Inc()
	if err != nil {
		if withdrawn != nil && withdrawn.Sign() > 0 {
			l.redeposit(ctx, groupID, withdrawn)
		}
		slog.Warn("Settlement failed", "group_id", groupID, "caller", caller, "error", err)
		return nil, err
	}

	d := result.Distribution
	slog.Info("Group settled",
		"group_id", groupID,
		"mode", g.Mode,
		"settled_by", caller,
		"withdrawn", d.Withdrawn.String(),
		"yield", d.YieldTotal.String(),
		"forfeited", d.Forfeited.String(),
		"remainder", d.Remainder.String(),
		"remainder_to", d.RemainderTo,
		"fell_back", d.FellBack,
	)
	return result, nil
}

func (l *Ledger) authorizeSettle(g *models.Group, caller string, now time.Time) error {
	if l.gate.IsAgent(caller) || (caller != "" && caller == g.Creator) {
		return nil
	}
	openAt := time.Unix(g.SettleableAt(), 0).Add(l.grace)
	if !now.Before(openAt) {
		return nil
	}
	return fmt.Errorf("%w: only the agent or creator may settle before %s",
		models.ErrUnauthorized, openAt.UTC().Format(time.RFC3339))
}

// redeposit returns withdrawn funds to the group's position after a
// settlement that could not be persisted, so a retry sees the same balance.
func (l *Ledger) redeposit(ctx context.Context, groupID int64, amount *big.Int) {
	if _, err := l.vault.Deposit(context.WithoutCancel(ctx), groupID, amount); err != nil {
		slog.Error("Failed to redeposit after aborted settlement",
			"group_id", groupID, "amount", amount.String(), "error", err)
	}
}
