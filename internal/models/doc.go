// Package models defines the core domain models for lingostake.
//
// # Models
//
//   - Group: a time-boxed staking cohort tied to a learning challenge
//   - Membership: one account's stake and settlement state inside a group
//   - Attestation: the agent's finalized completion verdicts for a group
//   - Payout: the audit record written when a member claims
//   - Account: a registered participant or agent
//
// # Design Principles
//
// 1. **Integer money**: every amount is a *big.Int in the token's smallest unit
// 2. **Arena addressing**: groups are addressed by sequential int64 IDs and
// memberships by (group ID, account) pairs, never by pointers between records
// 3. **Terminal states**: a completed group and a claimed membership never go back
package models
