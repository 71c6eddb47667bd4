package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/mmynk/lingostake/internal/models"
)

// Issuer is stamped on every session token and required on validation.
const Issuer = "lingostake"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// JWTManager issues and checks HS256 session tokens for ledger accounts.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// Claims carry the account a session acts as. Subject repeats the handle.
type Claims struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
	jwt.RegisteredClaims
}

// NewJWTManager signs sessions with secret; they expire after ttl.
// A nil clock uses the wall clock.
func NewJWTManager(secret string, ttl time.Duration, clock clockwork.Clock) *JWTManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Generate opens a session for account.
func (m *JWTManager) Generate(account *models.Account) (string, error) {
	issued := m.clock.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		AccountID: account.ID,
		Handle:    account.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   account.Handle,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session for %s: %w", account.Handle, err)
	}
	return signed, nil
}

// Validate returns the claims of a live session. Every failure, including a
// foreign signing method or issuer, wraps ErrInvalidToken.
func (m *JWTManager) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Handle == "" || claims.Subject != claims.Handle {
		return nil, fmt.Errorf("%w: session names no account", ErrInvalidToken)
	}
	return claims, nil
}
