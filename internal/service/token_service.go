package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/internal/custody"
	"github.com/mmynk/lingostake/pkg/api"
	"github.com/mmynk/lingostake/pkg/api/apiconnect"
)

var _ apiconnect.TokenServiceHandler = (*TokenService)(nil)

var ErrFaucetDisabled = errors.New("faucet is disabled")

// Minter issues new tokens.
type Minter interface {
	Mint(account string, amount *big.Int) error
}

// TokenService exposes the custody token to participants.
type TokenService struct {
	token  custody.Token
	escrow string
	minter Minter
	faucet *big.Int
}

// NewTokenService creates a TokenService. A nil minter disables the faucet;
// faucetAmount is the default grant.
func NewTokenService(token custody.Token, escrow string, minter Minter, faucetAmount *big.Int) *TokenService {
	return &TokenService{token: token, escrow: escrow, minter: minter, faucet: faucetAmount}
}

// Approve lets the staking escrow pull up to amount from the caller.
func (s *TokenService) Approve(ctx context.Context, req *connect.Request[api.ApproveRequest]) (*connect.Response[api.ApproveResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := api.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.token.Approve(ctx, account, s.escrow, amount); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Allowance set", "account", account, "spender", s.escrow, "amount", amount.String())

	return connect.NewResponse(&api.ApproveResponse{
		Spender:   s.escrow,
		Allowance: amount.String(),
	}), nil
}

// BalanceOf returns an account's balance and its allowance for the escrow.
func (s *TokenService) BalanceOf(ctx context.Context, req *connect.Request[api.BalanceOfRequest]) (*connect.Response[api.BalanceOfResponse], error) {
	account := req.Msg.Account
	if account == "" {
		var err error
		if account, err = caller(ctx); err != nil {
			return nil, err
		}
	}

	balance, err := s.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, toConnectError(err)
	}
	allowance, err := s.token.Allowance(ctx, account, s.escrow)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.BalanceOfResponse{
		Account:   account,
		Balance:   balance.String(),
		Allowance: allowance.String(),
	}), nil
}

// Faucet mints test tokens to the caller.
func (s *TokenService) Faucet(ctx context.Context, req *connect.Request[api.FaucetRequest]) (*connect.Response[api.FaucetResponse], error) {
	if s.minter == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrFaucetDisabled)
	}
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	amount := s.faucet
	if req.Msg.Amount != "" {
		if amount, err = api.ParseAmount(req.Msg.Amount); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		if amount.Cmp(s.faucet) > 0 {
			amount = s.faucet
		}
	}

	if err := s.minter.Mint(account, amount); err != nil {
		return nil, toConnectError(err)
	}
	balance, err := s.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Faucet grant", "account", account, "amount", amount.String())

	return connect.NewResponse(&api.FaucetResponse{Balance: balance.String()}), nil
}
