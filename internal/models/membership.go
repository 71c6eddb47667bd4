package models

import "math/big"

// Membership is one account's record inside a group.
// It is keyed by (GroupID, Account).
type Membership struct {
	GroupID int64
	Account string

	// Seq is the join order within the group, starting at 1.
	// Settlement iterates members in Seq order.
	Seq int

	// Stake is the amount this member locked. Equal to the group's
	// StakingAmount for every member.
	Stake *big.Int

	HasStaked bool
	StakedAt  int64

	// Completed is set from the agent's attestation at settlement.
	Completed bool

	// PrincipalOwed is the principal returned on claim, fixed at settlement.
	PrincipalOwed *big.Int

	// YieldAllocation is the member's share of the distributable pool,
	// fixed at settlement.
	YieldAllocation *big.Int

	Claimed   bool
	ClaimedAt int64
}

// NewMembership returns a staked membership with zero allocations.
func NewMembership(groupID int64, account string, stake *big.Int, stakedAt int64) *Membership {
	return &Membership{
		GroupID:         groupID,
		Account:         account,
		Stake:           new(big.Int).Set(stake),
		HasStaked:       true,
		StakedAt:        stakedAt,
		PrincipalOwed:   new(big.Int),
		YieldAllocation: new(big.Int),
	}
}

// Entitlement is what a claim pays out: principal owed plus allocation.
func (m *Membership) Entitlement() *big.Int {
	return new(big.Int).Add(m.PrincipalOwed, m.YieldAllocation)
}
