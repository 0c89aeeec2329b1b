// File: internal/prop/repository.go
package prop

import (
	"context"
	"errors"
	"fmt"

	"propspot_backend/internal/docstore"
)

// ErrNotConnected is returned when the props collection cannot be reached at all.
var ErrNotConnected = fmt.Errorf("props store: %w", docstore.ErrNotConnected)

// Repository defines the data operations on the props collection.
type Repository interface {
	Create(ctx context.Context, p *Prop) (string, error)
	FindByID(ctx context.Context, id string) (*Prop, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	FindBy(ctx context.Context, filters ...docstore.Filter) ([]Prop, error)
	Watch(ctx context.Context, onSnapshot func([]Prop), onError func(error)) (docstore.Unsubscribe, error)
}

type docRepository struct {
	store      docstore.Store
	collection string
}

// NewRepository creates a props repository over a document store collection.
func NewRepository(store docstore.Store, collection string) Repository {
	return &docRepository{store: store, collection: collection}
}

func (r *docRepository) Create(ctx context.Context, p *Prop) (string, error) {
	if r.store == nil {
		return "", ErrNotConnected
	}
	id, err := r.store.Insert(ctx, r.collection, p.ToFields())
	if err != nil {
		return "", wrapStoreErr("create prop", err)
	}
	return id, nil
}

// FindByID returns (nil, nil) when the prop does not exist.
func (r *docRepository) FindByID(ctx context.Context, id string) (*Prop, error) {
	if r.store == nil {
		return nil, ErrNotConnected
	}
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, wrapStoreErr("get prop", err)
	}
	if doc == nil {
		return nil, nil
	}
	p, err := FromDocument(*doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *docRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if r.store == nil {
		return ErrNotConnected
	}
	if err := r.store.Update(ctx, r.collection, id, fields); err != nil {
		return wrapStoreErr("update prop", err)
	}
	return nil
}

func (r *docRepository) Delete(ctx context.Context, id string) error {
	if r.store == nil {
		return ErrNotConnected
	}
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return wrapStoreErr("delete prop", err)
	}
	return nil
}

// FindBy runs an equality query against the remote collection.
func (r *docRepository) FindBy(ctx context.Context, filters ...docstore.Filter) ([]Prop, error) {
	if r.store == nil {
		return nil, ErrNotConnected
	}
	docs, err := r.store.Query(ctx, r.collection, filters...)
	if err != nil {
		return nil, wrapStoreErr("query props", err)
	}
	return decodeAll(docs, nil), nil
}

// Watch opens a standing subscription on the collection. Documents that fail to
// decode are passed to onError as *DocumentError and left out of the snapshot.
func (r *docRepository) Watch(ctx context.Context, onSnapshot func([]Prop), onError func(error)) (docstore.Unsubscribe, error) {
	if r.store == nil {
		return nil, ErrNotConnected
	}
	unsub, err := r.store.Subscribe(ctx, r.collection, func(docs []docstore.Document) {
		onSnapshot(decodeAll(docs, onError))
	}, onError)
	if err != nil {
		return nil, wrapStoreErr("subscribe props", err)
	}
	return unsub, nil
}

func decodeAll(docs []docstore.Document, onError func(error)) []Prop {
	props := make([]Prop, 0, len(docs))
	for _, d := range docs {
		p, err := FromDocument(d)
		if err != nil {
			if onError != nil {
				onError(&DocumentError{ID: d.ID, Err: err})
			}
			continue
		}
		props = append(props, p)
	}
	return props
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, docstore.ErrNotConnected) {
		return ErrNotConnected
	}
	return fmt.Errorf("%s: %w", op, err)
}
