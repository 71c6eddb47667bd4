package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/internal/storage"
)

const groupColumns = `id, creator, title, language, staking_amount, duration, max_members, mode,
	total_staked, member_count, is_active, is_completed, vault_principal, created_at,
	settled_at, settled_by, withdrawn_total, yield_total`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	g := &models.Group{}
	var (
		stakingAmount, totalStaked, principal, withdrawn, yield string
		mode                                                    string
		isActive, isCompleted                                   int
	)
	if err := row.Scan(&g.ID, &g.Creator, &g.Title, &g.Language, &stakingAmount, &g.Duration,
		&g.MaxMembers, &mode, &totalStaked, &g.MemberCount, &isActive, &isCompleted, &principal,
		&g.CreatedAt, &g.SettledAt, &g.SettledBy, &withdrawn, &yield); err != nil {
		return nil, err
	}
	g.Mode = models.Mode(mode)
	g.IsActive = isActive == 1
	g.IsCompleted = isCompleted == 1

	var err error
	if g.StakingAmount, err = parseAmount(stakingAmount); err != nil {
		return nil, err
	}
	if g.TotalStaked, err = parseAmount(totalStaked); err != nil {
		return nil, err
	}
	if g.VaultPrincipal, err = parseAmount(principal); err != nil {
		return nil, err
	}
	if g.WithdrawnTotal, err = parseAmount(withdrawn); err != nil {
		return nil, err
	}
	if g.YieldTotal, err = parseAmount(yield); err != nil {
		return nil, err
	}
	return g, nil
}

func getGroup(ctx context.Context, q queryer, id int64) (*models.Group, error) {
	g, err := scanGroup(q.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", models.ErrGroupNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// CreateGroup persists a new group and assigns its sequential ID.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (creator, title, language, staking_amount, duration, max_members, mode,
			total_staked, member_count, is_active, is_completed, vault_principal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Creator, g.Title, g.Language, formatAmount(g.StakingAmount), g.Duration, g.MaxMembers,
		string(g.Mode), formatAmount(g.TotalStaked), g.MemberCount, boolToInt(g.IsActive),
		boolToInt(g.IsCompleted), formatAmount(g.VaultPrincipal), g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read group id: %w", err)
	}
	g.ID = id
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	return getGroup(ctx, s.db, id)
}

// ListGroups retrieves all groups, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.queryGroups(ctx, "SELECT "+groupColumns+" FROM groups ORDER BY id")
}

// ListActiveGroupsSettleableBefore retrieves active groups whose duration
// ended at or before cutoff.
func (s *SQLiteStore) ListActiveGroupsSettleableBefore(ctx context.Context, cutoff int64) ([]*models.Group, error) {
	return s.queryGroups(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE is_active = 1 AND created_at + duration <= ? ORDER BY id",
		cutoff,
	)
}

func (s *SQLiteStore) queryGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// AddStake inserts a membership and bumps the group's running totals in one
// transaction, then runs fn before committing.
func (s *SQLiteStore) AddStake(ctx context.Context, m *models.Membership, fn storage.StakeFunc) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		g, err := getGroup(ctx, tx, m.GroupID)
		if err != nil {
			return err
		}
		if g.IsCompleted || !g.IsActive {
			return fmt.Errorf("%w: %d", models.ErrAlreadyCompleted, g.ID)
		}

		_, err = getMembership(ctx, tx, m.GroupID, m.Account)
		if err == nil {
			return fmt.Errorf("%w: %s in %d", models.ErrAlreadyStaked, m.Account, g.ID)
		}
		if !errors.Is(err, models.ErrNotAMember) {
			return err
		}
		if g.IsFull() {
			return fmt.Errorf("%w: %d/%d", models.ErrGroupFull, g.MemberCount, g.MaxMembers)
		}

		m.Seq = g.MemberCount + 1
		m.HasStaked = true
		_, err = tx.ExecContext(ctx,
			`INSERT INTO memberships (group_id, account, seq, stake, has_staked, staked_at)
			 VALUES (?, ?, ?, ?, 1, ?)`,
			m.GroupID, m.Account, m.Seq, formatAmount(m.Stake), m.StakedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}

		prevCount := g.MemberCount
		g.TotalStaked.Add(g.TotalStaked, m.Stake)
		g.VaultPrincipal.Add(g.VaultPrincipal, m.Stake)
		g.MemberCount++

		res, err := tx.ExecContext(ctx,
			`UPDATE groups SET total_staked = ?, vault_principal = ?, member_count = ?
			 WHERE id = ? AND member_count = ? AND is_completed = 0`,
			formatAmount(g.TotalStaked), formatAmount(g.VaultPrincipal), g.MemberCount, g.ID, prevCount,
		)
		if err != nil {
			return fmt.Errorf("failed to update group totals: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("%w: concurrent update of group %d", models.ErrGroupFull, g.ID)
		}

		return fn(g, m)
	})
}

// SettleGroup loads a group with its members, lets fn compute the
// settlement, and persists the result. A non-nil attestation is recorded in
// the same transaction.
func (s *SQLiteStore) SettleGroup(ctx context.Context, groupID int64, a *models.Attestation, fn storage.SettleFunc) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		g, err := getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if g.IsCompleted {
			return fmt.Errorf("%w: %d", models.ErrAlreadyCompleted, groupID)
		}

		if a != nil {
			if err := insertAttestation(ctx, tx, a); err != nil {
				return err
			}
		}

		members, err := listMemberships(ctx, tx, groupID)
		if err != nil {
			return err
		}

		if err := fn(g, members); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE groups SET is_active = ?, is_completed = ?, vault_principal = ?, settled_at = ?,
				settled_by = ?, withdrawn_total = ?, yield_total = ?
			 WHERE id = ? AND is_completed = 0`,
			boolToInt(g.IsActive), boolToInt(g.IsCompleted), formatAmount(g.VaultPrincipal), g.SettledAt,
			g.SettledBy, formatAmount(g.WithdrawnTotal), formatAmount(g.YieldTotal), groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("%w: %d", models.ErrAlreadyCompleted, groupID)
		}

		for _, m := range members {
			_, err := tx.ExecContext(ctx,
				`UPDATE memberships SET completed = ?, principal_owed = ?, yield_allocation = ?
				 WHERE group_id = ? AND account = ? AND claimed = 0`,
				boolToInt(m.Completed), formatAmount(m.PrincipalOwed), formatAmount(m.YieldAllocation),
				groupID, m.Account,
			)
			if err != nil {
				return fmt.Errorf("failed to update membership %s: %w", m.Account, err)
			}
		}
		return nil
	})
}
