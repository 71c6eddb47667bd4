package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/internal/auth"
	"github.com/mmynk/lingostake/pkg/api"
	"github.com/mmynk/lingostake/pkg/api/apiconnect"
)

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "handle", req.Msg.Handle)

	if req.Msg.Handle == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidHandle)
	}

	account, err := s.authenticator.Register(ctx, req.Msg.Handle, req.Msg.DisplayName, req.Msg.Passphrase)
	if err != nil {
		s.logger.Error("Registration failed", "handle", req.Msg.Handle, "error", err)
		switch {
		case errors.Is(err, auth.ErrHandleExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidHandle):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account", account.Handle, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Account registered", "account", account.Handle, "account_id", account.ID)
	return connect.NewResponse(&api.RegisterResponse{
		Account: toAPIAccount(account),
		Token:   token,
	}), nil
}

// Login authenticates an account and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "handle", req.Msg.Handle)

	if req.Msg.Handle == "" || req.Msg.Passphrase == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	account, err := s.authenticator.Authenticate(ctx, req.Msg.Handle, req.Msg.Passphrase)
	if err != nil {
		s.logger.Warn("Login failed", "handle", req.Msg.Handle, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account", account.Handle, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Account logged in", "account", account.Handle)
	return connect.NewResponse(&api.LoginResponse{
		Account: toAPIAccount(account),
		Token:   token,
	}), nil
}
