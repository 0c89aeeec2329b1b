// File: internal/docstore/firestore.go
package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore wraps an existing client. A nil client yields a store whose calls all fail with ErrNotConnected.
func NewFirestoreStore(client *firestore.Client, logger *zap.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, logger: logger}
}

// Subscribe starts a snapshot listener in its own goroutine. The first snapshot carries the
// full collection; every later one is the full collection again, which is what callers replace
// their mirrors with.
func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(subCtx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					s.logger.Debug("Snapshot listener stopped", zap.String("collection", collection))
					return
				}
				if onError != nil {
					onError(err)
				}
				return
			}

			refs, err := snap.Documents.GetAll()
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("reading snapshot of %s: %w", collection, err))
				}
				return
			}
			docs := make([]Document, 0, len(refs))
			for _, ref := range refs {
				docs = append(docs, Document{ID: ref.Ref.ID, Fields: ref.Data()})
			}
			onSnapshot(docs)
		}
	}()

	return Unsubscribe(cancel), nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.WherePath(firestore.FieldPath{f.Field}, "==", f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", collection, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if s.client == nil {
		return "", ErrNotConnected
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("adding to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	if s.client == nil {
		return ErrNotConnected
	}
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields, opts...); err != nil {
		return fmt.Errorf("setting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if s.client == nil {
		return ErrNotConnected
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if s.client == nil {
		return ErrNotConnected
	}
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if s.client == nil {
		return ErrNotConnected
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: t})
	})
}

func (s *FirestoreStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (*Document, error) {
	snap, err := t.tx.Get(t.client.Collection(collection).Doc(id))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (t *firestoreTx) Set(collection, id string, fields map[string]interface{}) error {
	return t.tx.Set(t.client.Collection(collection).Doc(id), fields)
}

func (t *firestoreTx) Delete(collection, id string) error {
	return t.tx.Delete(t.client.Collection(collection).Doc(id))
}
