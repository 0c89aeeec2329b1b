// File: internal/shared/sharedtest/identity.go
package sharedtest

import (
	"context"

	"propspot_backend/internal/shared"

	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider is a mock type for shared.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

var _ shared.IdentityProvider = (*MockIdentityProvider)(nil)

func (m *MockIdentityProvider) CreateCredential(ctx context.Context, req shared.CreateCredentialRequest) (*shared.Identity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Identity), args.Error(1)
}

func (m *MockIdentityProvider) VerifyToken(ctx context.Context, idToken string) (*shared.Identity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteCredential(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}
