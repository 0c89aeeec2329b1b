// File: internal/prop/mirror.go
package prop

import (
	"context"
	"errors"
	"sync"
	"time"

	"propspot_backend/internal/docstore"
	"propspot_backend/internal/metrics"
	"propspot_backend/internal/observable"

	"go.uber.org/zap"
)

// Mirror keeps an in-memory copy of the props collection current through one
// standing subscription. Every snapshot replaces the copy wholesale.
type Mirror struct {
	repo       Repository
	collection string
	logger     *zap.Logger

	cell *observable.Cell[[]Prop]

	// RetryDelay is the wait before reopening a subscription that ended with an error.
	RetryDelay time.Duration

	mu    sync.Mutex
	unsub docstore.Unsubscribe
	ctx   context.Context
	gen   int
}

const defaultRetryDelay = 5 * time.Second

// NewMirror creates a stopped mirror holding an empty snapshot.
func NewMirror(repo Repository, collection string, logger *zap.Logger) *Mirror {
	return &Mirror{
		repo:       repo,
		collection: collection,
		logger:     logger.Named("prop_mirror"),
		cell:       observable.New([]Prop{}),
		RetryDelay: defaultRetryDelay,
	}
}

// Start opens the subscription. Calling Start while already subscribed logs a warning and does nothing.
// A subscription that later ends with an error is reopened after RetryDelay until ctx is done or
// Stop is called; the last snapshot stays readable in between.
func (m *Mirror) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unsub != nil {
		m.logger.Warn("Mirror already started, ignoring Start", zap.String("collection", m.collection))
		return nil
	}
	return m.subscribeLocked(ctx)
}

func (m *Mirror) subscribeLocked(ctx context.Context) error {
	if m.repo == nil {
		return ErrNotConnected
	}

	m.gen++
	gen := m.gen
	m.ctx = ctx

	unsub, err := m.repo.Watch(ctx, m.apply, func(err error) { m.fail(gen, err) })
	if err != nil {
		m.logger.Error("Failed to subscribe to collection", zap.String("collection", m.collection), zap.Error(err))
		return err
	}
	m.unsub = unsub
	m.logger.Info("Mirror subscribed", zap.String("collection", m.collection))
	return nil
}

// Stop cancels the subscription and any pending retry. It is safe to call on a stopped mirror.
func (m *Mirror) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	if m.unsub == nil {
		return
	}
	m.unsub()
	m.unsub = nil
	m.logger.Info("Mirror unsubscribed", zap.String("collection", m.collection))
}

// Running reports whether the mirror currently holds a live subscription.
func (m *Mirror) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsub != nil
}

// Snapshot returns the current contents in delivery order. Callers must not modify it.
func (m *Mirror) Snapshot() []Prop {
	return m.cell.Get()
}

// Subscribe returns a channel that receives every new snapshot, starting with the current one.
// A slow reader only sees the latest snapshot.
func (m *Mirror) Subscribe() (<-chan []Prop, func()) {
	return m.cell.Subscribe()
}

func (m *Mirror) apply(props []Prop) {
	m.cell.Set(props)
	metrics.MirrorSnapshotsTotal.WithLabelValues(m.collection).Inc()
	metrics.MirrorDocuments.WithLabelValues(m.collection).Set(float64(len(props)))
	m.logger.Debug("Mirror snapshot applied", zap.String("collection", m.collection), zap.Int("count", len(props)))
}

// fail keeps the last good snapshot in place. A document that could not be decoded
// leaves the subscription open; anything else has ended it.
func (m *Mirror) fail(gen int, err error) {
	metrics.SubscriptionErrorsTotal.WithLabelValues(m.collection).Inc()

	var docErr *DocumentError
	if errors.As(err, &docErr) {
		m.logger.Warn("Skipping undecodable document", zap.String("collection", m.collection), zap.String("id", docErr.ID), zap.Error(docErr.Err))
		return
	}

	m.logger.Error("Collection subscription ended", zap.String("collection", m.collection), zap.Error(err))
	// The store may report the error from inside Watch while Start still holds mu.
	go m.drop(gen)
}

func (m *Mirror) drop(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.unsub == nil {
		return
	}
	m.unsub()
	m.unsub = nil
	m.scheduleRetryLocked(m.gen)
}

func (m *Mirror) scheduleRetryLocked(gen int) {
	ctx := m.ctx
	m.logger.Info("Mirror resubscribing", zap.String("collection", m.collection), zap.Duration("after", m.RetryDelay))
	time.AfterFunc(m.RetryDelay, func() {
		if ctx.Err() != nil {
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		if gen != m.gen || m.unsub != nil {
			return
		}
		if err := m.subscribeLocked(ctx); err != nil {
			m.scheduleRetryLocked(m.gen)
		}
	})
}
