// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/lingostake/internal/models"
)

// StakeFunc performs the fund movements of a stake. It runs inside the
// store transaction after the membership is written; an error rolls the
// membership back. The transaction commits even if the caller's context is
// cancelled once StakeFunc has returned nil.
type StakeFunc func(g *models.Group, m *models.Membership) error

// SettleFunc computes the settlement of a group. It runs inside the store
// transaction with the group and its members in join order, and mutates the
// passed records to their settled state. An error leaves the store untouched.
type SettleFunc func(g *models.Group, members []*models.Membership) error

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	// CreateGroup persists a new group. g.ID is assigned by the store
	// from a sequence.
	CreateGroup(ctx context.Context, g *models.Group) error

	// GetGroup returns models.ErrGroupNotFound when no group has id.
	GetGroup(ctx context.Context, id int64) (*models.Group, error)

	ListGroups(ctx context.Context) ([]*models.Group, error)

	// ListActiveGroupsSettleableBefore returns active groups whose
	// duration ended at or before cutoff (Unix seconds).
	ListActiveGroupsSettleableBefore(ctx context.Context, cutoff int64) ([]*models.Group, error)

	// GetMembership returns models.ErrNotAMember when the account never staked.
	GetMembership(ctx context.Context, groupID int64, account string) (*models.Membership, error)

	// ListMemberships returns a group's members in join order.
	ListMemberships(ctx context.Context, groupID int64) ([]*models.Membership, error)

	// AddStake inserts m and bumps the group's running totals, then calls fn.
	// Fails with models.ErrAlreadyStaked, models.ErrGroupFull or
	// models.ErrAlreadyCompleted.
	AddStake(ctx context.Context, m *models.Membership, fn StakeFunc) error

	// SaveAttestation persists the group's verdicts. They are copied onto
	// the memberships at settlement. Fails with models.ErrAlreadyAttested.
	SaveAttestation(ctx context.Context, a *models.Attestation) error

	// GetAttestation returns nil, nil when the group has no attestation.
	GetAttestation(ctx context.Context, groupID int64) (*models.Attestation, error)

	// SettleGroup loads the group and its members, calls fn, and persists
	// the mutated records together with a, when non-nil. Fails with
	// models.ErrAlreadyCompleted or models.ErrAlreadyAttested.
	SettleGroup(ctx context.Context, groupID int64, a *models.Attestation, fn SettleFunc) error

	// ClaimMembership marks the membership claimed at the Unix time at and
	// records its payout. Funds are moved by the caller after it returns.
	// Fails with models.ErrNotCompleted, models.ErrNotAMember or
	// models.ErrAlreadyClaimed.
	ClaimMembership(ctx context.Context, groupID int64, account string, at int64) (*models.Payout, error)

	// ReleaseClaim undoes ClaimMembership for a payout that was not paid.
	ReleaseClaim(ctx context.Context, p *models.Payout) error

	ListPayouts(ctx context.Context, groupID int64) ([]*models.Payout, error)

	CreateAccount(ctx context.Context, a *models.Account) error

	// GetAccountByHandle returns nil, nil when no account has handle.
	GetAccountByHandle(ctx context.Context, handle string) (*models.Account, error)

	// Close releases any resources held by the store.
	Close() error
}
