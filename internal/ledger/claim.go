package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
)

// Claim pays a member's settled entitlement from escrow and consumes the
// membership. A member with nothing owed still claims; the payout is zero
// and the record is closed.
//
// The claim is recorded before any funds move, and the transfer is not
// abandoned when ctx is cancelled. If the transfer itself fails the claim is
// released and can be retried.
func (l *Ledger) Claim(ctx context.Context, groupID int64, account string) (*models.Payout, error) {
	group, releaseGroup := l.locks.group(groupID)
	defer releaseGroup()
	group.RLock()
	defer group.RUnlock()

	member, releaseMember := l.locks.member(groupID, account)
	defer releaseMember()
	member.Lock()
	defer member.Unlock()

	p, err := l.store.ClaimMembership(ctx, groupID, account, l.clock.Now().Unix())
	if err == nil && p.Total.Sign() > 0 {
		if terr := l.token.Transfer(context.WithoutCancel(ctx), l.escrow, account, p.Total); terr != nil {
			err = fmt.Errorf("failed to pay claim: %w", terr)
			l.releaseClaim(ctx, p)
		}
	}
	metrics.ClaimsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}

	slog.Info("Claim paid",
		"group_id", groupID,
		"account", account,
		"principal", p.Principal.String(),
		"yield", p.Yield.String(),
		"total", p.Total.String(),
	)
	return p, nil
}

func (l *Ledger) releaseClaim(ctx context.Context, p *models.Payout) {
	if err := l.store.ReleaseClaim(context.WithoutCancel(ctx), p); err != nil {
		slog.Error("Claim recorded without payment",
			"group_id", p.GroupID,
			"account", p.Account,
			"payout_id", p.ID,
			"total", p.Total.String(),
			"error", err,
		)
	}
}
