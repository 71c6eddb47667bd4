package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/lingostake/internal/metrics"
	"github.com/mmynk/lingostake/internal/models"
)

// SettleExpired settles every active group whose grace period has passed.
// Groups settled concurrently by someone else are skipped. It returns the
// number of groups settled and the joined errors of the rest.
func (l *Ledger) SettleExpired(ctx context.Context) (int, error) {
	cutoff := l.clock.Now().Add(-l.grace).Unix()
	groups, err := l.store.ListActiveGroupsSettleableBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	settled := 0
	var errs []error
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, err := l.Settle(ctx, g.ID, SystemCaller, nil)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, models.ErrAlreadyCompleted):
		default:
			errs = append(errs, err)
		}
	}
	return settled, errors.Join(errs...)
}

// RunSweeper calls SettleExpired every interval until ctx is done.
func (l *Ledger) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Sweeper stopped")
			return nil
		case <-ticker.Chan():
			n, err := l.SettleExpired(ctx)
			metrics.SweeperRunsTotal.WithLabelValues(metrics.Status(err)).Inc()
			if err != nil {
				slog.Warn("Sweep incomplete", "settled", n, "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Sweep settled groups", "settled", n)
			}
		}
	}
}
