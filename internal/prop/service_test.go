package prop

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

const testCollection = "props"

type harness struct {
	store   *docstore.MemoryStore
	mirror  *Mirror
	service *ServiceImplementation
}

func newHarness(t *testing.T, prefilter bool) *harness {
	t.Helper()
	store := docstore.NewMemoryStore()
	repo := NewRepository(store, testCollection)
	mirror := NewMirror(repo, testCollection, zap.NewNop())
	svc := NewService(repo, mirror, &config.Config{SearchRemotePrefilter: prefilter}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(mirror.Stop)
	return &harness{store: store, mirror: mirror, service: svc}
}

func TestMirror_StartTwiceKeepsOneSubscription(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	require.NoError(t, h.mirror.Start(ctx))
	require.NoError(t, h.mirror.Start(ctx))
	assert.Equal(t, 1, h.store.ListenerCount(testCollection))
	assert.True(t, h.mirror.Running())

	snapshots, cancel := h.mirror.Subscribe()
	defer cancel()
	<-snapshots // current value

	_, err := h.service.Create(ctx, Prop{Name: "Lamp", Category: CategoryFurniture})
	require.NoError(t, err)

	select {
	case props := <-snapshots:
		assert.Len(t, props, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	select {
	case <-snapshots:
		t.Fatal("one change produced more than one delivery")
	default:
	}

	h.mirror.Stop()
	h.mirror.Stop()
	assert.Equal(t, 0, h.store.ListenerCount(testCollection))
	assert.False(t, h.mirror.Running())
}

func TestMirror_StartWithoutStore(t *testing.T) {
	m := NewMirror(nil, testCollection, zap.NewNop())
	assert.ErrorIs(t, m.Start(context.Background()), ErrNotConnected)
	assert.Empty(t, m.Snapshot())
}

func TestMirror_ReflectsInitialContents(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	_, err := h.store.Insert(ctx, testCollection, (&Prop{Name: "Cane", Category: CategoryAccessories}).ToFields())
	require.NoError(t, err)

	require.NoError(t, h.mirror.Start(ctx))
	require.Len(t, h.mirror.Snapshot(), 1)
	assert.Equal(t, "Cane", h.mirror.Snapshot()[0].Name)
}

func TestService_CreateReadDelete(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	require.NoError(t, h.mirror.Start(ctx))

	id, err := h.service.Create(ctx, Prop{ID: "client-chosen", Name: "Velvet Armchair", Category: CategoryFurniture, Tags: []string{"red"}})
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", id)

	p, err := h.service.Read(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Velvet Armchair", p.Name)
	assert.Regexp(t, `^velvet-armchair-`, p.AssetTag)
	assert.Equal(t, h.service.now(), p.Timestamp)
	assert.Equal(t, []string{"red"}, p.Tags)
	assert.Len(t, h.service.List(ctx), 1)

	require.NoError(t, h.service.Delete(ctx, id))
	p, err = h.service.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, h.service.List(ctx))
}

func TestService_ReadMissing(t *testing.T) {
	h := newHarness(t, false)
	p, err := h.service.Read(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = h.service.Read(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestService_UpdateMergesFields(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	id, err := h.service.Create(ctx, Prop{Name: "Cloak", Category: CategoryClothing, Color: "Black", Size: "M"})
	require.NoError(t, err)

	require.NoError(t, h.service.Update(ctx, id, map[string]interface{}{FieldColor: "Green"}))

	p, err := h.service.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Green", p.Color)
	assert.Equal(t, "M", p.Size)
	assert.Equal(t, "Cloak", p.Name)
}

func TestService_UpdateErrors(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	err := h.service.Update(ctx, "missing", map[string]interface{}{FieldColor: "Green"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = h.service.Update(ctx, "missing", map[string]interface{}{"bogus": 1})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	err = h.service.Update(ctx, "missing", map[string]interface{}{})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestService_StoreClosed(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.store.Close())

	_, err := h.service.Create(context.Background(), Prop{Name: "x", Category: CategoryOther})
	assert.ErrorIs(t, err, common.ErrNotConnected)
}

func seedSearch(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for _, p := range searchFixture() {
		p := p
		_, err := h.service.Create(ctx, p)
		require.NoError(t, err)
	}
}

func names(props []Prop) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func TestService_Search(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.mirror.Start(context.Background()))
	seedSearch(t, h)

	got, err := h.service.Search(context.Background(), "blonde wig")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Platinum Wig", "Bob Cut"}, names(got))

	got, err = h.service.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestService_SearchWithPrefilter(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.mirror.Start(context.Background()))
	seedSearch(t, h)

	got, err := h.service.Search(context.Background(), "long blonde")
	require.NoError(t, err)
	assert.Equal(t, []string{"Platinum Wig"}, names(got))

	// "blonde" in the notes does not satisfy the hairColor equality prefilter
	got, err = h.service.Search(context.Background(), "blonde stitching")
	require.NoError(t, err)
	assert.Empty(t, got)
}
