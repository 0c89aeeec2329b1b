package profile

import (
	"context"
	"testing"
	"time"

	"propspot_backend/internal/common"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, cacheSize int) (*ServiceImplementation, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	cfg := &config.Config{ProfileCacheSize: cacheSize, ProfileCacheTTL: time.Minute}
	return NewService(NewRepository(store, "profiles"), cfg, zap.NewNop()), store
}

func seedProfile(t *testing.T, store *docstore.MemoryStore, p UserProfile) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), "profiles", p.ID, p.ToFields(), false))
}

func TestHas(t *testing.T) {
	var nilProfile *UserProfile
	assert.False(t, nilProfile.Has(CapabilityRead))

	reader := &UserProfile{CanRead: true}
	assert.True(t, reader.Has(CapabilityRead))
	assert.False(t, reader.Has(CapabilityDelete))

	admin := &UserProfile{Administrator: true}
	for _, c := range []Capability{CapabilityCreate, CapabilityRead, CapabilityUpdate, CapabilityDelete} {
		assert.True(t, admin.Has(c))
	}
	assert.False(t, reader.Has(Capability("teleport")))
}

func TestGet_MissingProfileIsNil(t *testing.T) {
	svc, _ := newTestService(t, 8)
	p, err := svc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = svc.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGet_MissIsNotCached(t *testing.T) {
	svc, store := newTestService(t, 8)
	ctx := context.Background()

	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, p)

	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada", Approved: true})
	p, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.Name)
}

func TestGet_HitServedFromCacheUntilInvalidated(t *testing.T) {
	svc, store := newTestService(t, 8)
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada"})

	_, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "profiles", "u1", map[string]interface{}{FieldName: "Grace"}))

	p, _ := svc.Get(ctx, "u1")
	assert.Equal(t, "Ada", p.Name)

	svc.Invalidate("u1")
	p, _ = svc.Get(ctx, "u1")
	assert.Equal(t, "Grace", p.Name)
}

func TestGet_CacheDisabled(t *testing.T) {
	svc, store := newTestService(t, 0)
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada"})

	_, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "profiles", "u1", map[string]interface{}{FieldName: "Grace"}))

	p, _ := svc.Get(ctx, "u1")
	assert.Equal(t, "Grace", p.Name)
}

func TestDirectLookup_SeesRevocationTheCacheMisses(t *testing.T) {
	svc, store := newTestService(t, 8)
	direct := NewDirectLookup(NewRepository(store, "profiles"))
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada", Administrator: true, Approved: true})

	cached, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, cached.Administrator)

	// Another process revokes the flag; nothing invalidates this process's cache.
	require.NoError(t, store.Update(ctx, "profiles", "u1", map[string]interface{}{FieldAdministrator: false}))

	cached, _ = svc.Get(ctx, "u1")
	assert.True(t, cached.Administrator)

	p, err := direct.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Administrator)

	p, err = direct.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateCapabilities(t *testing.T) {
	svc, store := newTestService(t, 8)
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada", CanRead: true})
	_, _ = svc.Get(ctx, "u1")

	yes := true
	p, err := svc.UpdateCapabilities(ctx, "u1", AdminUpdateProfileRequest{CanDelete: &yes})
	require.NoError(t, err)
	assert.True(t, p.CanDelete)
	assert.True(t, p.CanRead)

	_, err = svc.UpdateCapabilities(ctx, "u1", AdminUpdateProfileRequest{})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = svc.UpdateCapabilities(ctx, "ghost", AdminUpdateProfileRequest{CanDelete: &yes})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateName(t *testing.T) {
	svc, store := newTestService(t, 8)
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada", Administrator: false})

	p, err := svc.UpdateName(ctx, "u1", "  Ada L.  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", p.Name)
	assert.False(t, p.Administrator)

	_, err = svc.UpdateName(ctx, "u1", "   ")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestDeleteDropsCachedCopy(t *testing.T) {
	svc, store := newTestService(t, 8)
	ctx := context.Background()
	seedProfile(t, store, UserProfile{ID: "u1", Name: "Ada"})
	_, _ = svc.Get(ctx, "u1")

	require.NoError(t, svc.Delete(ctx, "u1"))
	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}
