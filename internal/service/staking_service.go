package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/internal/auth"
	"github.com/mmynk/lingostake/internal/ledger"
	"github.com/mmynk/lingostake/internal/middleware"
	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/pkg/api"
	"github.com/mmynk/lingostake/pkg/api/apiconnect"
)

var _ apiconnect.StakingServiceHandler = (*StakingService)(nil)

// StakingService implements the Connect StakingService on top of the ledger.
type StakingService struct {
	ledger *ledger.Ledger
}

// NewStakingService creates a StakingService.
func NewStakingService(l *ledger.Ledger) *StakingService {
	return &StakingService{ledger: l}
}

// caller returns the authenticated account or an Unauthenticated error.
func caller(ctx context.Context) (string, error) {
	account := middleware.GetAccount(ctx)
	if account == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return account, nil
}

func toVerdicts(v api.Verdicts) ledger.Verdicts {
	return ledger.Verdicts{Accounts: v.Accounts, Flags: v.Completed}
}

// CreateGroup opens a group with the caller as creator.
func (s *StakingService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	creator, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := api.ParseAmount(req.Msg.StakingAmount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %v", models.ErrInvalidAmount, err))
	}
	mode := models.Mode(req.Msg.Mode)
	if mode == "" {
		mode = models.ModeNoLoss
	}

	g, err := s.ledger.CreateGroup(ctx, ledger.CreateGroupParams{
		Creator:       creator,
		StakingAmount: amount,
		Duration:      req.Msg.DurationSeconds,
		MaxMembers:    req.Msg.MaxMembers,
		Mode:          mode,
		Title:         req.Msg.Title,
		Language:      req.Msg.Language,
	})
	if err != nil {
		slog.Warn("CreateGroup failed", "creator", creator, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(g)}), nil
}

// Stake joins the caller to a group.
func (s *StakingService) Stake(ctx context.Context, req *connect.Request[api.StakeRequest]) (*connect.Response[api.StakeResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.ledger.Stake(ctx, req.Msg.GroupID, account)
	if err != nil {
		return nil, toConnectError(err)
	}
	g, err := s.ledger.GetGroupInfo(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.StakeResponse{
		Member: toAPIMember(m),
		Group:  toAPIGroup(g),
	}), nil
}

// SetCompletion records the agent's verdicts for a group.
func (s *StakingService) SetCompletion(ctx context.Context, req *connect.Request[api.SetCompletionRequest]) (*connect.Response[api.SetCompletionResponse], error) {
	agent, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.ledger.SetCompletion(ctx, req.Msg.GroupID, agent, toVerdicts(req.Msg.Verdicts))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SetCompletionResponse{Attestation: toAPIAttestation(a)}), nil
}

// Settle distributes a group's vault balance.
func (s *StakingService) Settle(ctx context.Context, req *connect.Request[api.SettleRequest]) (*connect.Response[api.SettleResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	var verdicts *ledger.Verdicts
	if req.Msg.Verdicts != nil {
		v := toVerdicts(*req.Msg.Verdicts)
		verdicts = &v
	}

	result, err := s.ledger.Settle(ctx, req.Msg.GroupID, account, verdicts)
	if err != nil {
		return nil, toConnectError(err)
	}

	d := result.Distribution
	return connect.NewResponse(&api.SettleResponse{
		Group:       toAPIGroup(result.Group),
		Members:     toAPIMembers(result.Members),
		Forfeited:   api.FormatAmount(d.Forfeited),
		Remainder:   api.FormatAmount(d.Remainder),
		RemainderTo: d.RemainderTo,
		FellBack:    d.FellBack,
	}), nil
}

// Claim pays the caller's entitlement.
func (s *StakingService) Claim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ClaimResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.ledger.Claim(ctx, req.Msg.GroupID, account)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ClaimResponse{Payout: toAPIPayout(p)}), nil
}

// GetGroupInfo returns a group with its pending yield and attestation.
func (s *StakingService) GetGroupInfo(ctx context.Context, req *connect.Request[api.GetGroupInfoRequest]) (*connect.Response[api.GetGroupInfoResponse], error) {
	g, err := s.ledger.GetGroupInfo(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.GetGroupInfoResponse{Group: toAPIGroup(g), PendingYield: "0"}
	if y, err := s.ledger.PendingYield(ctx, g.ID); err == nil {
		resp.PendingYield = api.FormatAmount(y)
	} else {
		// The group itself is still readable while the vault is down.
		slog.Warn("Pending yield unavailable", "group_id", g.ID, "error", err)
	}

	a, err := s.ledger.GetAttestation(ctx, g.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	resp.Attestation = toAPIAttestation(a)

	return connect.NewResponse(resp), nil
}

// GetUserInfo returns a membership, the caller's by default.
func (s *StakingService) GetUserInfo(ctx context.Context, req *connect.Request[api.GetUserInfoRequest]) (*connect.Response[api.GetUserInfoResponse], error) {
	account := req.Msg.Account
	if account == "" {
		var err error
		if account, err = caller(ctx); err != nil {
			return nil, err
		}
	}

	m, err := s.ledger.GetUserInfo(ctx, req.Msg.GroupID, account)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetUserInfoResponse{Member: toAPIMember(m)}), nil
}

// ListGroups returns every group.
func (s *StakingService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	groups, err := s.ledger.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: toAPIGroups(groups)}), nil
}

// ListMembers returns a group's members in join order.
func (s *StakingService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	members, err := s.ledger.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: toAPIMembers(members)}), nil
}

// ListPayouts returns the claims paid from a group.
func (s *StakingService) ListPayouts(ctx context.Context, req *connect.Request[api.ListPayoutsRequest]) (*connect.Response[api.ListPayoutsResponse], error) {
	payouts, err := s.ledger.ListPayouts(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Payout, len(payouts))
	for i, p := range payouts {
		out[i] = toAPIPayout(p)
	}
	return connect.NewResponse(&api.ListPayoutsResponse{Payouts: out}), nil
}
