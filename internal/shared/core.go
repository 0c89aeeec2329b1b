// File: internal/shared/core.go
package shared

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned by VerifyToken for any token the provider rejects.
var ErrInvalidToken = errors.New("invalid or expired identity token")

// ErrCredentialExists is returned by CreateCredential when the email is already registered.
var ErrCredentialExists = errors.New("a credential already exists for this email")

// Identity is a verified credential as reported by the identity provider.
// Claims other than the uid are informational; authorization never reads them.
type Identity struct {
	UID      string
	Email    string
	Name     string
	Provider string
}

// CreateCredentialRequest carries what is needed to open an email/password credential.
type CreateCredentialRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// IdentityProvider issues and verifies user credentials.
type IdentityProvider interface {
	CreateCredential(ctx context.Context, req CreateCredentialRequest) (*Identity, error)
	VerifyToken(ctx context.Context, idToken string) (*Identity, error)
	// SignOut revokes the credential's refresh tokens, forcing a fresh sign-in.
	SignOut(ctx context.Context, uid string) error
	// DeleteCredential removes the credential. A credential that is already gone is not an error.
	DeleteCredential(ctx context.Context, uid string) error
}
