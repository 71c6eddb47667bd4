package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/lingostake/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid handle or passphrase")
	ErrWeakPassword       = errors.New("passphrase must be at least 8 characters")
	ErrHandleExists       = errors.New("handle already registered")
	ErrInvalidHandle      = errors.New("handle must be 3-32 characters of a-z, 0-9, '_' or '-'")
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_-]{3,32}$`)

// AccountStorage defines the account persistence the authenticator needs.
type AccountStorage interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByHandle(ctx context.Context, handle string) (*models.Account, error)
}

// PasswordAuthenticator implements passphrase authentication using bcrypt.
type PasswordAuthenticator struct {
	storage  AccountStorage
	reserved map[string]bool
}

// NewPasswordAuthenticator creates a passphrase authenticator. Reserved
// handles (the agent, the sweeper) cannot be registered publicly.
func NewPasswordAuthenticator(storage AccountStorage, reserved ...string) *PasswordAuthenticator {
	r := make(map[string]bool, len(reserved))
	for _, h := range reserved {
		r[h] = true
	}
	return &PasswordAuthenticator{storage: storage, reserved: r}
}

// ValidateCredential checks if the passphrase meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed passphrase.
func (a *PasswordAuthenticator) Register(ctx context.Context, handle, displayName, credential string) (*models.Account, error) {
	if a.reserved[handle] {
		return nil, ErrHandleExists
	}
	return a.register(ctx, handle, displayName, credential)
}

// Provision creates a reserved account such as the completion agent at
// startup. An existing account is returned unchanged.
func (a *PasswordAuthenticator) Provision(ctx context.Context, handle, credential string) (*models.Account, error) {
	existing, err := a.storage.GetAccountByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up handle: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	return a.register(ctx, handle, handle, credential)
}

func (a *PasswordAuthenticator) register(ctx context.Context, handle, displayName, credential string) (*models.Account, error) {
	if !handlePattern.MatchString(handle) {
		return nil, ErrInvalidHandle
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	existing, err := a.storage.GetAccountByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up handle: %w", err)
	}
	if existing != nil {
		return nil, ErrHandleExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passphrase: %w", err)
	}

	if displayName == "" {
		displayName = handle
	}
	account := models.NewAccount(handle, displayName, string(hashed))
	if err := a.storage.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the handle and passphrase, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, handle, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByHandle(ctx, handle)
	if err != nil || account == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}
