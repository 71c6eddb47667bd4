package models

// Attestation is the agent's finalized set of completion verdicts for a group.
// A group receives at most one.
type Attestation struct {
	GroupID int64

	// Agent is the account that submitted the verdicts.
	Agent string

	// Verdicts maps account to completed. Members absent from the map
	// are treated as not completed.
	Verdicts map[string]bool

	SubmittedAt int64
}

// Completed returns the verdict for account, defaulting to false.
func (a *Attestation) Completed(account string) bool {
	if a == nil {
		return false
	}
	return a.Verdicts[account]
}
