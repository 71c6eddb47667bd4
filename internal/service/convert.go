package service

import (
	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/pkg/api"
)

func toAPIAccount(a *models.Account) *api.Account {
	return &api.Account{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		CreatedAt:   a.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:              g.ID,
		Creator:         g.Creator,
		Title:           g.Title,
		Language:        g.Language,
		StakingAmount:   api.FormatAmount(g.StakingAmount),
		DurationSeconds: g.Duration,
		MaxMembers:      g.MaxMembers,
		Mode:            string(g.Mode),
		TotalStaked:     api.FormatAmount(g.TotalStaked),
		MemberCount:     g.MemberCount,
		IsActive:        g.IsActive,
		IsCompleted:     g.IsCompleted,
		VaultPrincipal:  api.FormatAmount(g.VaultPrincipal),
		CreatedAt:       g.CreatedAt,
		SettleableAt:    g.SettleableAt(),
		SettledAt:       g.SettledAt,
		SettledBy:       g.SettledBy,
		WithdrawnTotal:  api.FormatAmount(g.WithdrawnTotal),
		YieldTotal:      api.FormatAmount(g.YieldTotal),
	}
}

func toAPIGroups(groups []*models.Group) []*api.Group {
	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	return out
}

func toAPIMember(m *models.Membership) *api.Member {
	return &api.Member{
		GroupID:         m.GroupID,
		Account:         m.Account,
		Seq:             m.Seq,
		Stake:           api.FormatAmount(m.Stake),
		StakedAt:        m.StakedAt,
		Completed:       m.Completed,
		PrincipalOwed:   api.FormatAmount(m.PrincipalOwed),
		YieldAllocation: api.FormatAmount(m.YieldAllocation),
		Claimed:         m.Claimed,
		ClaimedAt:       m.ClaimedAt,
	}
}

func toAPIMembers(members []*models.Membership) []*api.Member {
	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return out
}

func toAPIPayout(p *models.Payout) *api.Payout {
	return &api.Payout{
		ID:        p.ID,
		GroupID:   p.GroupID,
		Account:   p.Account,
		Principal: api.FormatAmount(p.Principal),
		Yield:     api.FormatAmount(p.Yield),
		Total:     api.FormatAmount(p.Total),
		CreatedAt: p.CreatedAt,
	}
}

func toAPIAttestation(a *models.Attestation) *api.Attestation {
	if a == nil {
		return nil
	}
	return &api.Attestation{
		GroupID:     a.GroupID,
		Agent:       a.Agent,
		SubmittedAt: a.SubmittedAt,
		Verdicts:    a.Verdicts,
	}
}
