package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered participant or agent.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Handle is the unique account identifier used across the ledger
	// (membership keys, creator, agent identity).
	Handle string

	// DisplayName is shown to other group members.
	DisplayName string

	// CredentialHash is the bcrypt hash of the account's passphrase.
	CredentialHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewAccount creates an account with a fresh ID and timestamps.
func NewAccount(handle, displayName, credentialHash string) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:             uuid.New().String(),
		Handle:         handle,
		DisplayName:    displayName,
		CredentialHash: credentialHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
