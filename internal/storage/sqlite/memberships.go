package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/lingostake/internal/models"
)

const membershipColumns = `group_id, account, seq, stake, has_staked, staked_at, completed,
	principal_owed, yield_allocation, claimed, claimed_at`

func scanMembership(row rowScanner) (*models.Membership, error) {
	m := &models.Membership{}
	var (
		stake, principal, yield       string
		hasStaked, completed, claimed int
	)
	if err := row.Scan(&m.GroupID, &m.Account, &m.Seq, &stake, &hasStaked, &m.StakedAt, &completed,
		&principal, &yield, &claimed, &m.ClaimedAt); err != nil {
		return nil, err
	}
	m.HasStaked = hasStaked == 1
	m.Completed = completed == 1
	m.Claimed = claimed == 1

	var err error
	if m.Stake, err = parseAmount(stake); err != nil {
		return nil, err
	}
	if m.PrincipalOwed, err = parseAmount(principal); err != nil {
		return nil, err
	}
	if m.YieldAllocation, err = parseAmount(yield); err != nil {
		return nil, err
	}
	return m, nil
}

func getMembership(ctx context.Context, q queryer, groupID int64, account string) (*models.Membership, error) {
	m, err := scanMembership(q.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE group_id = ? AND account = ?",
		groupID, account,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s in %d", models.ErrNotAMember, account, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func listMemberships(ctx context.Context, q queryer, groupID int64) ([]*models.Membership, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE group_id = ? ORDER BY seq",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// GetMembership retrieves one account's membership in a group.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID int64, account string) (*models.Membership, error) {
	return getMembership(ctx, s.db, groupID, account)
}

// ListMemberships retrieves a group's members in join order.
func (s *SQLiteStore) ListMemberships(ctx context.Context, groupID int64) ([]*models.Membership, error) {
	return listMemberships(ctx, s.db, groupID)
}

// ClaimMembership consumes a membership: it is marked claimed at the given
// Unix time and a payout row is written, both in one transaction.
func (s *SQLiteStore) ClaimMembership(ctx context.Context, groupID int64, account string, at int64) (*models.Payout, error) {
	var payout *models.Payout
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		g, err := getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		m, err := getMembership(ctx, tx, groupID, account)
		if err != nil {
			return err
		}
		if !m.HasStaked {
			return fmt.Errorf("%w: %s in %d", models.ErrNotAMember, account, groupID)
		}
		if !g.IsCompleted {
			return fmt.Errorf("%w: %d", models.ErrNotCompleted, groupID)
		}
		if m.Claimed {
			return fmt.Errorf("%w: %s in %d", models.ErrAlreadyClaimed, account, groupID)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE memberships SET claimed = 1, claimed_at = ?
			 WHERE group_id = ? AND account = ? AND claimed = 0`,
			at, groupID, account,
		)
		if err != nil {
			return fmt.Errorf("failed to mark claimed: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("%w: %s in %d", models.ErrAlreadyClaimed, account, groupID)
		}

		p := &models.Payout{
			ID:        uuid.New().String(),
			GroupID:   groupID,
			Account:   account,
			Principal: m.PrincipalOwed,
			Yield:     m.YieldAllocation,
			Total:     m.Entitlement(),
			CreatedAt: at,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payouts (id, group_id, account, principal, yield, total, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.GroupID, p.Account, formatAmount(p.Principal), formatAmount(p.Yield),
			formatAmount(p.Total), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payout: %w", err)
		}
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ReleaseClaim reverts a claim whose payout was never transferred: the
// payout row is deleted and the membership is claimable again.
func (s *SQLiteStore) ReleaseClaim(ctx context.Context, p *models.Payout) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM payouts WHERE id = ? AND group_id = ? AND account = ?",
			p.ID, p.GroupID, p.Account,
		)
		if err != nil {
			return fmt.Errorf("failed to delete payout: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("payout %s not found", p.ID)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE memberships SET claimed = 0, claimed_at = 0
			 WHERE group_id = ? AND account = ? AND claimed = 1`,
			p.GroupID, p.Account,
		)
		if err != nil {
			return fmt.Errorf("failed to release claim: %w", err)
		}
		return nil
	})
}

// ListPayouts retrieves all payouts for a group in claim order.
func (s *SQLiteStore) ListPayouts(ctx context.Context, groupID int64) ([]*models.Payout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, account, principal, yield, total, created_at
		 FROM payouts WHERE group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		p := &models.Payout{}
		var principal, yield, total string
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Account, &principal, &yield, &total, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		if p.Principal, err = parseAmount(principal); err != nil {
			return nil, err
		}
		if p.Yield, err = parseAmount(yield); err != nil {
			return nil, err
		}
		if p.Total, err = parseAmount(total); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}
	return payouts, nil
}
