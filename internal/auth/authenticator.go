// Package auth provides account registration, password login and session tokens
// for synchronized mode. The offline CLI never touches it.
package auth

import (
	"context"

	"github.com/mmynk/kakeibo/internal/models"
)

// Authenticator registers accounts and verifies credentials.
// PasswordAuthenticator is the only implementation; the interface keeps the
// services independent of how credentials are checked.
type Authenticator interface {
	// Register creates an account. The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account if the credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential before it is stored.
	ValidateCredential(credential string) error
}
