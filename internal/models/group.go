package models

import (
	"fmt"
	"math/big"
)

// Mode selects how a group is settled.
type Mode string

const (
	// ModeNoLoss returns full principal to every member; only yield is shared.
	ModeNoLoss Mode = "no-loss"
	// ModeHardcore forfeits a non-completer's principal to the completers.
	ModeHardcore Mode = "hardcore"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNoLoss, ModeHardcore:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Group is a staking cohort sharing a completion challenge and a yield pool.
type Group struct {
	// ID is the sequential identifier assigned by the store.
	ID int64

	// Creator is the account that opened the group. It carries no special
	// rights beyond being allowed to trigger settlement.
	Creator string

	// Title and Language describe the learning challenge.
	Title    string
	Language string

	// StakingAmount is what every member must stake, in smallest token units.
	StakingAmount *big.Int

	// Duration is the number of seconds from activation to the earliest
	// allowed settlement.
	Duration int64

	// MaxMembers is the capacity of the group (>= 2).
	MaxMembers int

	Mode Mode

	// TotalStaked is the running sum of member stakes. Frozen at settlement.
	TotalStaked *big.Int

	// MemberCount is the number of distinct stakers.
	MemberCount int

	IsActive    bool
	IsCompleted bool

	// VaultPrincipal is the principal currently placed in the vault for
	// this group. Zero once withdrawn at settlement.
	VaultPrincipal *big.Int

	// CreatedAt is the Unix timestamp of activation.
	CreatedAt int64

	// Settlement results, zero until the group is completed.
	SettledAt      int64
	SettledBy      string
	WithdrawnTotal *big.Int
	YieldTotal     *big.Int
}

// NewGroup returns an active group with zeroed running totals.
func NewGroup(creator string, stakingAmount *big.Int, duration int64, maxMembers int, mode Mode) *Group {
	return &Group{
		Creator:        creator,
		StakingAmount:  new(big.Int).Set(stakingAmount),
		Duration:       duration,
		MaxMembers:     maxMembers,
		Mode:           mode,
		TotalStaked:    new(big.Int),
		IsActive:       true,
		VaultPrincipal: new(big.Int),
		WithdrawnTotal: new(big.Int),
		YieldTotal:     new(big.Int),
	}
}

// SettleableAt returns the Unix time at which the group may be settled.
func (g *Group) SettleableAt() int64 {
	return g.CreatedAt + g.Duration
}

// IsFull reports whether the group has reached capacity.
func (g *Group) IsFull() bool {
	return g.MemberCount >= g.MaxMembers
}
