package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/lingostake/internal/models"
)

// CreateAccount inserts a new account into the database.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, handle, display_name, credential_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.Handle,
		a.DisplayName,
		a.CredentialHash,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByHandle retrieves an account by its handle.
func (s *SQLiteStore) GetAccountByHandle(ctx context.Context, handle string) (*models.Account, error) {
	query := `
		SELECT id, handle, display_name, credential_hash, created_at, updated_at
		FROM accounts
		WHERE handle = ?
	`

	a := &models.Account{}
	err := s.db.QueryRowContext(ctx, query, handle).Scan(
		&a.ID,
		&a.Handle,
		&a.DisplayName,
		&a.CredentialHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Account not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by handle: %w", err)
	}

	return a, nil
}
