package auth

import (
	"context"

	"github.com/mmynk/lingostake/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Services depend on it rather than on a concrete credential scheme.
type Authenticator interface {
	// Register creates an account with the given handle and credential.
	// The handle becomes the account's ledger identity.
	Register(ctx context.Context, handle, displayName, credential string) (*models.Account, error)

	// Authenticate verifies the credential and returns the account.
	Authenticate(ctx context.Context, handle, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
