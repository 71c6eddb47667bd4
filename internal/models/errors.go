package models

import "errors"

// Categorical ledger errors. Callers match them with errors.Is.
var (
	ErrInvalidAmount        = errors.New("staking amount must be positive")
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrInsufficientCapacity = errors.New("group needs at least 2 members")
	ErrInvalidMode          = errors.New("unknown group mode")
	ErrGroupNotFound        = errors.New("group not found")
	ErrAlreadyStaked        = errors.New("account already staked in group")
	ErrGroupFull            = errors.New("group is full")
	ErrNotSettleable        = errors.New("group duration has not elapsed")
	ErrAlreadyCompleted     = errors.New("group already completed")
	ErrNotCompleted         = errors.New("group not settled yet")
	ErrUnauthorized         = errors.New("caller not authorized")
	ErrAlreadyAttested      = errors.New("completion already attested for group")
	ErrInvalidAttestation   = errors.New("invalid attestation")
	ErrAlreadyClaimed       = errors.New("already claimed")
	ErrNotAMember           = errors.New("account is not a member of group")
	ErrVaultUnavailable     = errors.New("vault unavailable")
	ErrConservation         = errors.New("allocation exceeds withdrawn funds")
	ErrUnbacked             = errors.New("recorded funds not held in custody")
)

// IsRetryable reports whether err is worth re-issuing unchanged.
// Only vault failures are.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVaultUnavailable)
}
