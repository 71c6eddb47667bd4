package models

import "math/big"

// Payout is the record written when a member claims from a completed group.
type Payout struct {
	// ID is the unique identifier for the payout (UUID format).
	ID string

	GroupID int64
	Account string

	// Principal is the returned stake (zero for hardcore non-completers).
	Principal *big.Int

	// Yield is the member's allocation from the distributable pool.
	Yield *big.Int

	// Total is Principal + Yield, the amount transferred out of custody.
	Total *big.Int

	// CreatedAt is the Unix timestamp when the claim was recorded.
	CreatedAt int64
}
