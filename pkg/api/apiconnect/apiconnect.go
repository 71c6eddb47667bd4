// Package apiconnect registers the lingostake.v1 services with Connect.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/pkg/api"
)

const (
	AuthServiceName    = "lingostake.v1.AuthService"
	StakingServiceName = "lingostake.v1.StakingService"
	TokenServiceName   = "lingostake.v1.TokenService"
)

const (
	AuthServiceRegisterProcedure = "/lingostake.v1.AuthService/Register"
	AuthServiceLoginProcedure    = "/lingostake.v1.AuthService/Login"

	StakingServiceCreateGroupProcedure   = "/lingostake.v1.StakingService/CreateGroup"
	StakingServiceStakeProcedure         = "/lingostake.v1.StakingService/Stake"
	StakingServiceSetCompletionProcedure = "/lingostake.v1.StakingService/SetCompletion"
	StakingServiceSettleProcedure        = "/lingostake.v1.StakingService/Settle"
	StakingServiceClaimProcedure         = "/lingostake.v1.StakingService/Claim"
	StakingServiceGetGroupInfoProcedure  = "/lingostake.v1.StakingService/GetGroupInfo"
	StakingServiceGetUserInfoProcedure   = "/lingostake.v1.StakingService/GetUserInfo"
	StakingServiceListGroupsProcedure    = "/lingostake.v1.StakingService/ListGroups"
	StakingServiceListMembersProcedure   = "/lingostake.v1.StakingService/ListMembers"
	StakingServiceListPayoutsProcedure   = "/lingostake.v1.StakingService/ListPayouts"

	TokenServiceApproveProcedure   = "/lingostake.v1.TokenService/Approve"
	TokenServiceBalanceOfProcedure = "/lingostake.v1.TokenService/BalanceOf"
	TokenServiceFaucetProcedure    = "/lingostake.v1.TokenService/Faucet"
)

// readOnly marks procedures without side effects.
var readOnly = connect.WithIdempotency(connect.IdempotencyNoSideEffects)

func handlerOptions(opts []connect.HandlerOption, extra ...connect.HandlerOption) []connect.HandlerOption {
	all := []connect.HandlerOption{connect.WithCodec(api.Codec{})}
	all = append(all, extra...)
	return append(all, opts...)
}

func clientOptions(opts []connect.ClientOption, extra ...connect.ClientOption) []connect.ClientOption {
	all := []connect.ClientOption{connect.WithCodec(api.Codec{})}
	all = append(all, extra...)
	return append(all, opts...)
}

// mux routes a service's procedures to their handlers.
func mux(service string, handlers map[string]http.Handler) (string, http.Handler) {
	return "/" + service + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// AuthServiceHandler is implemented by the auth service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceHandler returns the path to mount svc on and its handler.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return mux(AuthServiceName, map[string]http.Handler{
		AuthServiceRegisterProcedure: connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, handlerOptions(opts)...),
		AuthServiceLoginProcedure:    connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, handlerOptions(opts)...),
	})
}

// AuthServiceClient calls the auth service.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
}

type authServiceClient struct {
	register *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login    *connect.Client[api.LoginRequest, api.LoginResponse]
}

// NewAuthServiceClient returns a client for the service at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &authServiceClient{
		register: connect.NewClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, clientOptions(opts)...),
		login:    connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, clientOptions(opts)...),
	}
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// StakingServiceHandler is implemented by the staking service.
type StakingServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	Stake(context.Context, *connect.Request[api.StakeRequest]) (*connect.Response[api.StakeResponse], error)
	SetCompletion(context.Context, *connect.Request[api.SetCompletionRequest]) (*connect.Response[api.SetCompletionResponse], error)
	Settle(context.Context, *connect.Request[api.SettleRequest]) (*connect.Response[api.SettleResponse], error)
	Claim(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ClaimResponse], error)
	GetGroupInfo(context.Context, *connect.Request[api.GetGroupInfoRequest]) (*connect.Response[api.GetGroupInfoResponse], error)
	GetUserInfo(context.Context, *connect.Request[api.GetUserInfoRequest]) (*connect.Response[api.GetUserInfoResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
	ListPayouts(context.Context, *connect.Request[api.ListPayoutsRequest]) (*connect.Response[api.ListPayoutsResponse], error)
}

// NewStakingServiceHandler returns the path to mount svc on and its handler.
func NewStakingServiceHandler(svc StakingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return mux(StakingServiceName, map[string]http.Handler{
		StakingServiceCreateGroupProcedure:   connect.NewUnaryHandler(StakingServiceCreateGroupProcedure, svc.CreateGroup, handlerOptions(opts)...),
		StakingServiceStakeProcedure:         connect.NewUnaryHandler(StakingServiceStakeProcedure, svc.Stake, handlerOptions(opts)...),
		StakingServiceSetCompletionProcedure: connect.NewUnaryHandler(StakingServiceSetCompletionProcedure, svc.SetCompletion, handlerOptions(opts)...),
		StakingServiceSettleProcedure:        connect.NewUnaryHandler(StakingServiceSettleProcedure, svc.Settle, handlerOptions(opts)...),
		StakingServiceClaimProcedure:         connect.NewUnaryHandler(StakingServiceClaimProcedure, svc.Claim, handlerOptions(opts)...),
		StakingServiceGetGroupInfoProcedure:  connect.NewUnaryHandler(StakingServiceGetGroupInfoProcedure, svc.GetGroupInfo, handlerOptions(opts, readOnly)...),
		StakingServiceGetUserInfoProcedure:   connect.NewUnaryHandler(StakingServiceGetUserInfoProcedure, svc.GetUserInfo, handlerOptions(opts, readOnly)...),
		StakingServiceListGroupsProcedure:    connect.NewUnaryHandler(StakingServiceListGroupsProcedure, svc.ListGroups, handlerOptions(opts, readOnly)...),
		StakingServiceListMembersProcedure:   connect.NewUnaryHandler(StakingServiceListMembersProcedure, svc.ListMembers, handlerOptions(opts, readOnly)...),
		StakingServiceListPayoutsProcedure:   connect.NewUnaryHandler(StakingServiceListPayoutsProcedure, svc.ListPayouts, handlerOptions(opts, readOnly)...),
	})
}

// StakingServiceClient calls the staking service.
type StakingServiceClient interface {
	StakingServiceHandler
}

type stakingServiceClient struct {
	createGroup   *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	stake         *connect.Client[api.StakeRequest, api.StakeResponse]
	setCompletion *connect.Client[api.SetCompletionRequest, api.SetCompletionResponse]
	settle        *connect.Client[api.SettleRequest, api.SettleResponse]
	claim         *connect.Client[api.ClaimRequest, api.ClaimResponse]
	getGroupInfo  *connect.Client[api.GetGroupInfoRequest, api.GetGroupInfoResponse]
	getUserInfo   *connect.Client[api.GetUserInfoRequest, api.GetUserInfoResponse]
	listGroups    *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	listMembers   *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
	listPayouts   *connect.Client[api.ListPayoutsRequest, api.ListPayoutsResponse]
}

// NewStakingServiceClient returns a client for the service at baseURL.
func NewStakingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) StakingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &stakingServiceClient{
		createGroup:   connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+StakingServiceCreateGroupProcedure, clientOptions(opts)...),
		stake:         connect.NewClient[api.StakeRequest, api.StakeResponse](httpClient, baseURL+StakingServiceStakeProcedure, clientOptions(opts)...),
		setCompletion: connect.NewClient[api.SetCompletionRequest, api.SetCompletionResponse](httpClient, baseURL+StakingServiceSetCompletionProcedure, clientOptions(opts)...),
		settle:        connect.NewClient[api.SettleRequest, api.SettleResponse](httpClient, baseURL+StakingServiceSettleProcedure, clientOptions(opts)...),
		claim:         connect.NewClient[api.ClaimRequest, api.ClaimResponse](httpClient, baseURL+StakingServiceClaimProcedure, clientOptions(opts)...),
		getGroupInfo:  connect.NewClient[api.GetGroupInfoRequest, api.GetGroupInfoResponse](httpClient, baseURL+StakingServiceGetGroupInfoProcedure, clientOptions(opts, readOnly)...),
		getUserInfo:   connect.NewClient[api.GetUserInfoRequest, api.GetUserInfoResponse](httpClient, baseURL+StakingServiceGetUserInfoProcedure, clientOptions(opts, readOnly)...),
		listGroups:    connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+StakingServiceListGroupsProcedure, clientOptions(opts, readOnly)...),
		listMembers:   connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL+StakingServiceListMembersProcedure, clientOptions(opts, readOnly)...),
		listPayouts:   connect.NewClient[api.ListPayoutsRequest, api.ListPayoutsResponse](httpClient, baseURL+StakingServiceListPayoutsProcedure, clientOptions(opts, readOnly)...),
	}
}

func (c *stakingServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *stakingServiceClient) Stake(ctx context.Context, req *connect.Request[api.StakeRequest]) (*connect.Response[api.StakeResponse], error) {
	return c.stake.CallUnary(ctx, req)
}

func (c *stakingServiceClient) SetCompletion(ctx context.Context, req *connect.Request[api.SetCompletionRequest]) (*connect.Response[api.SetCompletionResponse], error) {
	return c.setCompletion.CallUnary(ctx, req)
}

func (c *stakingServiceClient) Settle(ctx context.Context, req *connect.Request[api.SettleRequest]) (*connect.Response[api.SettleResponse], error) {
	return c.settle.CallUnary(ctx, req)
}

func (c *stakingServiceClient) Claim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ClaimResponse], error) {
	return c.claim.CallUnary(ctx, req)
}

func (c *stakingServiceClient) GetGroupInfo(ctx context.Context, req *connect.Request[api.GetGroupInfoRequest]) (*connect.Response[api.GetGroupInfoResponse], error) {
	return c.getGroupInfo.CallUnary(ctx, req)
}

func (c *stakingServiceClient) GetUserInfo(ctx context.Context, req *connect.Request[api.GetUserInfoRequest]) (*connect.Response[api.GetUserInfoResponse], error) {
	return c.getUserInfo.CallUnary(ctx, req)
}

func (c *stakingServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *stakingServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *stakingServiceClient) ListPayouts(ctx context.Context, req *connect.Request[api.ListPayoutsRequest]) (*connect.Response[api.ListPayoutsResponse], error) {
	return c.listPayouts.CallUnary(ctx, req)
}

// TokenServiceHandler is implemented by the token service.
type TokenServiceHandler interface {
	Approve(context.Context, *connect.Request[api.ApproveRequest]) (*connect.Response[api.ApproveResponse], error)
	BalanceOf(context.Context, *connect.Request[api.BalanceOfRequest]) (*connect.Response[api.BalanceOfResponse], error)
	Faucet(context.Context, *connect.Request[api.FaucetRequest]) (*connect.Response[api.FaucetResponse], error)
}

// NewTokenServiceHandler returns the path to mount svc on and its handler.
func NewTokenServiceHandler(svc TokenServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return mux(TokenServiceName, map[string]http.Handler{
		TokenServiceApproveProcedure:   connect.NewUnaryHandler(TokenServiceApproveProcedure, svc.Approve, handlerOptions(opts)...),
		TokenServiceBalanceOfProcedure: connect.NewUnaryHandler(TokenServiceBalanceOfProcedure, svc.BalanceOf, handlerOptions(opts, readOnly)...),
		TokenServiceFaucetProcedure:    connect.NewUnaryHandler(TokenServiceFaucetProcedure, svc.Faucet, handlerOptions(opts)...),
	})
}

// TokenServiceClient calls the token service.
type TokenServiceClient interface {
	TokenServiceHandler
}

type tokenServiceClient struct {
	approve   *connect.Client[api.ApproveRequest, api.ApproveResponse]
	balanceOf *connect.Client[api.BalanceOfRequest, api.BalanceOfResponse]
	faucet    *connect.Client[api.FaucetRequest, api.FaucetResponse]
}

// NewTokenServiceClient returns a client for the service at baseURL.
func NewTokenServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TokenServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &tokenServiceClient{
		approve:   connect.NewClient[api.ApproveRequest, api.ApproveResponse](httpClient, baseURL+TokenServiceApproveProcedure, clientOptions(opts)...),
		balanceOf: connect.NewClient[api.BalanceOfRequest, api.BalanceOfResponse](httpClient, baseURL+TokenServiceBalanceOfProcedure, clientOptions(opts, readOnly)...),
		faucet:    connect.NewClient[api.FaucetRequest, api.FaucetResponse](httpClient, baseURL+TokenServiceFaucetProcedure, clientOptions(opts)...),
	}
}

func (c *tokenServiceClient) Approve(ctx context.Context, req *connect.Request[api.ApproveRequest]) (*connect.Response[api.ApproveResponse], error) {
	return c.approve.CallUnary(ctx, req)
}

func (c *tokenServiceClient) BalanceOf(ctx context.Context, req *connect.Request[api.BalanceOfRequest]) (*connect.Response[api.BalanceOfResponse], error) {
	return c.balanceOf.CallUnary(ctx, req)
}

func (c *tokenServiceClient) Faucet(ctx context.Context, req *connect.Request[api.FaucetRequest]) (*connect.Response[api.FaucetResponse], error) {
	return c.faucet.CallUnary(ctx, req)
}
