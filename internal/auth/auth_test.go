package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/mmynk/lingostake/internal/models"
)

type memAccounts struct {
	byHandle map[string]*models.Account
}

func (m *memAccounts) CreateAccount(_ context.Context, a *models.Account) error {
	m.byHandle[a.Handle] = a
	return nil
}

func (m *memAccounts) GetAccountByHandle(_ context.Context, handle string) (*models.Account, error) {
	return m.byHandle[handle], nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(&memAccounts{byHandle: map[string]*models.Account{}}, "escrow")

	acct, err := a.Register(ctx, "alice", "", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if acct.DisplayName != "alice" {
		t.Errorf("Expected display name to default to handle, got %q", acct.DisplayName)
	}

	tests := []struct {
		name       string
		handle     string
		credential string
		wantErr    error
	}{
		{name: "duplicate handle", handle: "alice", credential: "another pass", wantErr: ErrHandleExists},
		{name: "reserved handle", handle: "escrow", credential: "another pass", wantErr: ErrHandleExists},
		{name: "short passphrase", handle: "bob", credential: "short", wantErr: ErrWeakPassword},
		{name: "bad handle", handle: "Bob!", credential: "long enough", wantErr: ErrInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.handle, "", tt.credential)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := a.Authenticate(ctx, "alice", "correct horse"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := a.Authenticate(ctx, "alice", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown handle, got %v", err)
	}
}

func TestPasswordAuthenticator_Provision(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(&memAccounts{byHandle: map[string]*models.Account{}}, "agent")

	if _, err := a.Register(ctx, "agent", "", "agent passphrase"); !errors.Is(err, ErrHandleExists) {
		t.Fatalf("Expected reserved handle to be refused, got %v", err)
	}

	first, err := a.Provision(ctx, "agent", "agent passphrase")
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	second, err := a.Provision(ctx, "agent", "ignored passphrase")
	if err != nil {
		t.Fatalf("Second provision failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected provision to be idempotent, got %s and %s", first.ID, second.ID)
	}
	if _, err := a.Authenticate(ctx, "agent", "agent passphrase"); err != nil {
		t.Errorf("Authenticate provisioned account failed: %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewJWTManager("test-secret", time.Hour, clock)
	acct := models.NewAccount("alice", "Alice", "hash")

	token, err := m.Generate(acct)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Handle != "alice" || claims.AccountID != acct.ID || claims.Issuer != Issuer {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	if _, err := NewJWTManager("other-secret", time.Hour, clock).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got %v", err)
	}

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Handle: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing foreign token failed: %v", err)
	}
	if _, err := m.Validate(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for foreign issuer, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}
