// File: internal/docstore/memory.go
package docstore

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryListener struct {
	onSnapshot SnapshotFunc
}

// MemoryStore is an in-process Store. It backs tests and local runs without a Firebase project.
// Snapshots are delivered synchronously on the writing goroutine, serialised across writers,
// and list documents ordered by id like Firestore's default ordering.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	closed      bool

	deliverMu  sync.Mutex
	listenerMu sync.Mutex
	listeners  map[string]map[int]*memoryListener
	nextID     int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]map[string]interface{}{},
		listeners:   map[string]map[int]*memoryListener{},
	}
}

// Subscribe registers onSnapshot and delivers the current contents before returning.
// onError is never called; the in-memory store has no transport to fail.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotFunc, _ ErrorFunc) (Unsubscribe, error) {
	if s.isClosed() {
		return nil, ErrNotConnected
	}

	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	if s.listeners[collection] == nil {
		s.listeners[collection] = map[int]*memoryListener{}
	}
	l := &memoryListener{onSnapshot: onSnapshot}
	s.listeners[collection][id] = l
	s.listenerMu.Unlock()

	s.deliverMu.Lock()
	onSnapshot(s.snapshot(collection))
	s.deliverMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners[collection], id)
			s.listenerMu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

// ListenerCount reports the number of active subscriptions on a collection.
func (s *MemoryStore) ListenerCount(collection string) int {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return len(s.listeners[collection])
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrNotConnected
	}
	return s.getLocked(collection, id), nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrNotConnected
	}

	var out []Document
	for _, doc := range s.sortedLocked(collection) {
		if matches(doc.Fields, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	if err := s.Set(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.setLocked(collection, id, fields, merge)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.setLocked(collection, id, fields, true)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// RunTransaction runs fn with exclusive access to the store. Writes are buffered and applied
// only if fn returns nil.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		s.mu.Unlock()
		return err
	}
	touched := map[string]struct{}{}
	for _, w := range tx.writes {
		if w.delete {
			delete(s.collections[w.collection], w.id)
		} else {
			s.setLocked(w.collection, w.id, w.fields, false)
		}
		touched[w.collection] = struct{}{}
	}
	s.mu.Unlock()

	for collection := range touched {
		s.notify(collection)
	}
	return nil
}

// Close makes every later call fail with ErrNotConnected.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *MemoryStore) getLocked(collection, id string) *Document {
	fields, ok := s.collections[collection][id]
	if !ok {
		return nil
	}
	return &Document{ID: id, Fields: copyFields(fields)}
}

func (s *MemoryStore) setLocked(collection, id string, fields map[string]interface{}, merge bool) {
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]map[string]interface{}{}
	}
	existing, ok := s.collections[collection][id]
	if !merge || !ok {
		s.collections[collection][id] = copyFields(fields)
		return
	}
	for k, v := range fields {
		existing[k] = v
	}
}

func (s *MemoryStore) sortedLocked(collection string) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (s *MemoryStore) snapshot(collection string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(collection)
}

func (s *MemoryStore) notify(collection string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.listenerMu.Lock()
	ids := make([]int, 0, len(s.listeners[collection]))
	for id := range s.listeners[collection] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	targets := make([]*memoryListener, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, s.listeners[collection][id])
	}
	s.listenerMu.Unlock()

	if len(targets) == 0 {
		return
	}
	docs := s.snapshot(collection)
	for _, l := range targets {
		l.onSnapshot(docs)
	}
}

func matches(fields map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

type memoryWrite struct {
	collection string
	id         string
	fields     map[string]interface{}
	delete     bool
}

// memoryTx runs with MemoryStore.mu held by RunTransaction.
type memoryTx struct {
	store  *MemoryStore
	writes []memoryWrite
}

func (t *memoryTx) Get(collection, id string) (*Document, error) {
	return t.store.getLocked(collection, id), nil
}

func (t *memoryTx) Set(collection, id string, fields map[string]interface{}) error {
	t.writes = append(t.writes, memoryWrite{collection: collection, id: id, fields: copyFields(fields)})
	return nil
}

func (t *memoryTx) Delete(collection, id string) error {
	t.writes = append(t.writes, memoryWrite{collection: collection, id: id, delete: true})
	return nil
}
