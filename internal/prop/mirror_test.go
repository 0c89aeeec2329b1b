package prop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"propspot_backend/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingRepository delivers one snapshot on the first Watch and then reports err.
// Later Watch calls deliver the same snapshot and stay open.
type failingRepository struct {
	Repository

	snapshot []Prop
	err      error

	mu       sync.Mutex
	watches  int
	released int
}

func (r *failingRepository) Watch(_ context.Context, onSnapshot func([]Prop), onError func(error)) (docstore.Unsubscribe, error) {
	r.mu.Lock()
	r.watches++
	first := r.watches == 1
	r.mu.Unlock()

	onSnapshot(r.snapshot)
	if first {
		onError(r.err)
	}
	return func() {
		r.mu.Lock()
		r.released++
		r.mu.Unlock()
	}, nil
}

func (r *failingRepository) watchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watches
}

func (r *failingRepository) releaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func TestMirror_SubscriptionErrorKeepsSnapshotAndAllowsRestart(t *testing.T) {
	repo := &failingRepository{
		snapshot: []Prop{{ID: "p1", Name: "Lamp", Category: CategoryFurniture}},
		err:      errors.New("listener closed: unavailable"),
	}
	m := NewMirror(repo, testCollection, zap.NewNop())
	m.RetryDelay = time.Hour
	t.Cleanup(m.Stop)

	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool { return !m.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, repo.releaseCount())
	require.Len(t, m.Snapshot(), 1)
	assert.Equal(t, "Lamp", m.Snapshot()[0].Name)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, 2, repo.watchCount())
	assert.True(t, m.Running())
}

func TestMirror_SubscriptionErrorResubscribes(t *testing.T) {
	repo := &failingRepository{
		snapshot: []Prop{{ID: "p1", Name: "Lamp", Category: CategoryFurniture}},
		err:      errors.New("listener closed: unavailable"),
	}
	m := NewMirror(repo, testCollection, zap.NewNop())
	m.RetryDelay = 10 * time.Millisecond
	t.Cleanup(m.Stop)

	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool { return repo.watchCount() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, m.Running, time.Second, 5*time.Millisecond)
	assert.Len(t, m.Snapshot(), 1)
}

func TestMirror_SubscriptionErrorNoRetryAfterStop(t *testing.T) {
	repo := &failingRepository{err: errors.New("listener closed")}
	m := NewMirror(repo, testCollection, zap.NewNop())
	m.RetryDelay = 20 * time.Millisecond

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return !m.Running() }, time.Second, 5*time.Millisecond)
	m.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, repo.watchCount())
	assert.False(t, m.Running())
}

func TestMirror_SubscriptionErrorNoRetryAfterContextDone(t *testing.T) {
	repo := &failingRepository{err: errors.New("listener closed")}
	m := NewMirror(repo, testCollection, zap.NewNop())
	m.RetryDelay = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, m.Start(ctx))
	require.Eventually(t, func() bool { return !m.Running() }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, repo.watchCount())
}

func TestMirror_UndecodableDocumentKeepsSubscription(t *testing.T) {
	repo := &failingRepository{
		snapshot: []Prop{{ID: "p1", Name: "Lamp", Category: CategoryFurniture}},
		err:      &DocumentError{ID: "broken", Err: errors.New("category: not a string")},
	}
	m := NewMirror(repo, testCollection, zap.NewNop())
	m.RetryDelay = 10 * time.Millisecond
	t.Cleanup(m.Stop)

	require.NoError(t, m.Start(context.Background()))

	assert.Never(t, func() bool { return !m.Running() }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, repo.watchCount())
	assert.Equal(t, 0, repo.releaseCount())
	assert.Len(t, m.Snapshot(), 1)
}
