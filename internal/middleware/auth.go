package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// AccountKey is the context key for the authenticated account handle.
	AccountKey contextKey = "account"
	// AccountIDKey is the context key for the authenticated account ID.
	AccountIDKey contextKey = "account_id"
)

// GetAccount extracts the authenticated account handle from the context.
// Returns empty string if not found.
func GetAccount(ctx context.Context) string {
	account, _ := ctx.Value(AccountKey).(string)
	return account
}

// GetAccountID extracts the authenticated account ID from the context.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}

// WithAccount returns ctx carrying claims' identity.
func WithAccount(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, AccountKey, claims.Handle)
	return context.WithValue(ctx, AccountIDKey, claims.AccountID)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// OptionalAuth validates a token when present but lets anonymous requests
// through. Read-only endpoints use it.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored here.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithAccount(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}
