// Package oracle is the trust boundary between the ledger and the single
// off-chain agent that attests which members completed a challenge.
//
// The ledger never evaluates completion itself. It consumes the agent's
// verdict as an opaque boolean per account.
package oracle

import (
	"fmt"

	"github.com/mmynk/lingostake/internal/models"
)

// Gate validates attestations from the configured agent.
type Gate struct {
	agent string
}

// NewGate returns a gate trusting agent. An empty agent trusts nobody.
func NewGate(agent string) *Gate {
	return &Gate{agent: agent}
}

// Agent returns the trusted account.
func (g *Gate) Agent() string {
	return g.agent
}

// IsAgent reports whether caller is the trusted agent.
func (g *Gate) IsAgent(caller string) bool {
	return g.agent != "" && caller == g.agent
}

// Authorize fails with models.ErrUnauthorized unless caller is the agent.
func (g *Gate) Authorize(caller string) error {
	if !g.IsAgent(caller) {
		return fmt.Errorf("%w: %q is not the completion agent", models.ErrUnauthorized, caller)
	}
	return nil
}

// Attest builds an attestation for a group from parallel account and flag
// lists. Every listed account must be a staker of the group and appear once.
// Stakers not listed are recorded as not completed.
func (g *Gate) Attest(caller string, groupID int64, members []*models.Membership, accounts []string, flags []bool, at int64) (*models.Attestation, error) {
	if err := g.Authorize(caller); err != nil {
		return nil, err
	}
	if len(accounts) != len(flags) {
		return nil, fmt.Errorf("%w: %d accounts, %d flags", models.ErrInvalidAttestation, len(accounts), len(flags))
	}

	stakers := make(map[string]bool, len(members))
	for _, m := range members {
		if m.HasStaked {
			stakers[m.Account] = true
		}
	}

	verdicts := make(map[string]bool, len(stakers))
	for account := range stakers {
		verdicts[account] = false
	}

	seen := make(map[string]bool, len(accounts))
	for i, account := range accounts {
		if seen[account] {
			return nil, fmt.Errorf("%w: %s listed twice", models.ErrInvalidAttestation, account)
		}
		seen[account] = true

		if !stakers[account] {
			return nil, fmt.Errorf("%w: %s in %d", models.ErrNotAMember, account, groupID)
		}
		verdicts[account] = flags[i]
	}

	return &models.Attestation{
		GroupID:     groupID,
		Agent:       caller,
		Verdicts:    verdicts,
		SubmittedAt: at,
	}, nil
}

// Apply copies verdicts onto members. Members without a verdict, or all
// members when a is nil, are marked not completed.
func Apply(a *models.Attestation, members []*models.Membership) (completers int) {
	for _, m := range members {
		m.Completed = a.Completed(m.Account)
		if m.Completed {
			completers++
		}
	}
	return completers
}
