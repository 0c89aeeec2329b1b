package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"propspot_backend/internal/profile"
	"propspot_backend/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProfiles map[string]*profile.UserProfile

func (s stubProfiles) Get(_ context.Context, uid string) (*profile.UserProfile, error) {
	if uid == "broken" {
		return nil, errors.New("store unavailable")
	}
	return s[uid], nil
}

func newTestStore() *Store {
	return NewStore(stubProfiles{
		"admin": {ID: "admin", Administrator: true},
		"user":  {ID: "user", CanRead: true},
	}, zap.NewNop())
}

func TestRequireAdmin_DoesNotResolveWhileLoading(t *testing.T) {
	store := newTestStore()
	guard := NewGuard(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := guard.RequireAdmin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, store.State().Loading)
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	store := newTestStore()
	guard := NewGuard(store)

	result := make(chan error, 1)
	go func() { result <- guard.RequireAdmin(context.Background()) }()

	require.NoError(t, store.OnCredentialChange(context.Background(), &shared.Identity{UID: "user"}))

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrNotAuthorized)
	case <-time.After(time.Second):
		t.Fatal("guard did not resolve")
	}
}

func TestRequireAdmin_AdmitsAdmin(t *testing.T) {
	store := newTestStore()
	guard := NewGuard(store)

	result := make(chan error, 1)
	go func() { result <- guard.RequireAdmin(context.Background()) }()

	require.NoError(t, store.OnCredentialChange(context.Background(), &shared.Identity{UID: "admin"}))

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("guard did not resolve")
	}
}

func TestRequireAdmin_AnonymousAndMissingProfileRejected(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.OnCredentialChange(context.Background(), nil))
	assert.ErrorIs(t, NewGuard(store).RequireAdmin(context.Background()), ErrNotAuthorized)

	require.NoError(t, store.OnCredentialChange(context.Background(), &shared.Identity{UID: "stranger"}))
	st := store.State()
	assert.True(t, st.LoggedIn)
	assert.Nil(t, st.User)
	assert.ErrorIs(t, NewGuard(store).RequireAdmin(context.Background()), ErrNotAuthorized)
}

func TestRequireCapability(t *testing.T) {
	store := newTestStore()
	guard := NewGuard(store)
	require.NoError(t, store.OnCredentialChange(context.Background(), &shared.Identity{UID: "user"}))

	assert.NoError(t, guard.RequireCapability(context.Background(), profile.CapabilityRead))
	assert.ErrorIs(t, guard.RequireCapability(context.Background(), profile.CapabilityDelete), ErrNotAuthorized)

	require.NoError(t, store.OnCredentialChange(context.Background(), &shared.Identity{UID: "admin"}))
	assert.NoError(t, guard.RequireCapability(context.Background(), profile.CapabilityDelete))
}

func TestOnCredentialChange_LookupErrorPublishesAnonymous(t *testing.T) {
	store := newTestStore()
	err := store.OnCredentialChange(context.Background(), &shared.Identity{UID: "broken"})
	assert.Error(t, err)
	assert.Equal(t, Anonymous(), store.State())
}

func TestOnCredentialChange_LastPublicationWins(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	require.NoError(t, store.OnCredentialChange(ctx, &shared.Identity{UID: "admin"}))
	require.NoError(t, store.OnCredentialChange(ctx, nil))

	st := store.State()
	assert.False(t, st.LoggedIn)
	assert.False(t, st.Loading)
	assert.Nil(t, st.User)
}
