// File: internal/docstore/store.go
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotConnected is returned when the backing store handle is missing or closed.
	ErrNotConnected = errors.New("docstore: not connected")
	// ErrNotFound is returned by Update when the target document does not exist.
	// Point lookups report absence as a nil document instead.
	ErrNotFound = errors.New("docstore: document not found")
)

// Document is one stored document: its store-assigned id plus its field map.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Filter is a single equality constraint, field == value.
type Filter struct {
	Field string
	Value interface{}
}

// Eq builds an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// SnapshotFunc receives the full contents of a collection every time it changes.
type SnapshotFunc func(docs []Document)

// ErrorFunc receives subscription errors. The subscription is over once it fires.
type ErrorFunc func(err error)

// Unsubscribe cancels a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Tx is the view of the store inside RunTransaction. All reads must happen before the first write.
type Tx interface {
	Get(collection, id string) (*Document, error)
	Set(collection, id string, fields map[string]interface{}) error
	Delete(collection, id string) error
}

// Store is the document database contract used by every repository.
type Store interface {
	// Subscribe opens a standing listener on a collection. The current contents are delivered
	// first, then one snapshot per change, in the order the store emits them.
	Subscribe(ctx context.Context, collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Insert creates a document with a store-assigned id and returns that id.
	Insert(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	// Set writes a document under a caller-chosen id; merge keeps fields not present in fields.
	Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error
	// Update merges fields into an existing document, returning ErrNotFound if it is missing.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
