package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/lingostake/internal/models"
)

// SaveAttestation persists a group's finalized verdicts. A group accepts
// exactly one attestation.
func (s *SQLiteStore) SaveAttestation(ctx context.Context, a *models.Attestation) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return insertAttestation(ctx, tx, a)
	})
}

func insertAttestation(ctx context.Context, tx *sql.Tx, a *models.Attestation) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM attestations WHERE group_id = ?", a.GroupID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%w: %d", models.ErrAlreadyAttested, a.GroupID)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check attestation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO attestations (group_id, agent, submitted_at) VALUES (?, ?, ?)",
		a.GroupID, a.Agent, a.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attestation: %w", err)
	}

	for account, completed := range a.Verdicts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO attestation_verdicts (group_id, account, completed) VALUES (?, ?, ?)",
			a.GroupID, account, boolToInt(completed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert verdict: %w", err)
		}
	}
	return nil
}

// GetAttestation retrieves a group's attestation, or nil if none was submitted.
func (s *SQLiteStore) GetAttestation(ctx context.Context, groupID int64) (*models.Attestation, error) {
	a := &models.Attestation{GroupID: groupID, Verdicts: make(map[string]bool)}
	err := s.db.QueryRowContext(ctx,
		"SELECT agent, submitted_at FROM attestations WHERE group_id = ?", groupID,
	).Scan(&a.Agent, &a.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT account, completed FROM attestation_verdicts WHERE group_id = ?", groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get verdicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var account string
		var completed int
		if err := rows.Scan(&account, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		a.Verdicts[account] = completed == 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verdicts: %w", err)
	}
	return a, nil
}
