package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
)

// Verdicts is an agent's completion report: Flags[i] applies to Accounts[i].
type Verdicts struct {
	Accounts []string
	Flags    []bool
}

// SetCompletion records the agent's finalized verdicts for a group. Only the
// configured agent may call it, once per group, before the group completes.
func (l *Ledger) SetCompletion(ctx context.Context, groupID int64, caller string, v Verdicts) (*models.Attestation, error) {
	if err := l.gate.Authorize(caller); err != nil {
		metrics.AttestationsTotal.WithLabelValues("unauthorized").Inc()
		return nil, err
	}

	lock, release := l.locks.group(groupID)
	defer release()
	lock.Lock()
	defer lock.Unlock()

	a, err := l.buildAttestation(ctx, groupID, caller, v)
	if err == nil {
		err = l.store.SaveAttestation(ctx, a)
	}
	metrics.AttestationsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}

	slog.Info("Completion attested",
		"group_id", groupID,
		"agent", caller,
		"verdicts", len(a.Verdicts),
	)
	return a, nil
}

// GetAttestation returns a group's attestation or nil when none exists.
func (l *Ledger) GetAttestation(ctx context.Context, groupID int64) (*models.Attestation, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.GetAttestation(ctx, groupID)
}

// buildAttestation validates verdicts against the group. Caller holds the
// group lock.
func (l *Ledger) buildAttestation(ctx context.Context, groupID int64, caller string, v Verdicts) (*models.Attestation, error) {
	g, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsCompleted {
		return nil, fmt.Errorf("%w: %d", models.ErrAlreadyCompleted, groupID)
	}

	existing, err := l.store.GetAttestation(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %d", models.ErrAlreadyAttested, groupID)
	}

	members, err := l.store.ListMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return l.gate.Attest(caller, groupID, members, v.Accounts, v.Flags, l.clock.Now().Unix())
}
