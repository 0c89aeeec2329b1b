// File: internal/profile/repository.go
package profile

import (
	"context"
	"fmt"

	"propspot_backend/internal/docstore"
)

// Repository defines the data operations on the profiles collection.
type Repository interface {
	FindByID(ctx context.Context, uid string) (*UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*UserProfile, error)
	List(ctx context.Context) ([]UserProfile, error)
	Update(ctx context.Context, uid string, fields map[string]interface{}) error
	Delete(ctx context.Context, uid string) error
}

type docRepository struct {
	store      docstore.Store
	collection string
}

// NewRepository creates a profiles repository over a document store collection.
func NewRepository(store docstore.Store, collection string) Repository {
	return &docRepository{store: store, collection: collection}
}

// FindByID returns (nil, nil) when no profile exists for uid.
func (r *docRepository) FindByID(ctx context.Context, uid string) (*UserProfile, error) {
	doc, err := r.store.Get(ctx, r.collection, uid)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	if doc == nil {
		return nil, nil
	}
	return FromDocument(*doc)
}

// FindByEmail returns the first profile carrying email, or (nil, nil).
func (r *docRepository) FindByEmail(ctx context.Context, email string) (*UserProfile, error) {
	docs, err := r.store.Query(ctx, r.collection, docstore.Eq(FieldEmail, email))
	if err != nil {
		return nil, fmt.Errorf("query profile by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return FromDocument(docs[0])
}

func (r *docRepository) List(ctx context.Context) ([]UserProfile, error) {
	docs, err := r.store.Query(ctx, r.collection)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]UserProfile, 0, len(docs))
	for _, d := range docs {
		p, err := FromDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *docRepository) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, r.collection, uid, fields); err != nil {
		return fmt.Errorf("update profile %s: %w", uid, err)
	}
	return nil
}

func (r *docRepository) Delete(ctx context.Context, uid string) error {
	if err := r.store.Delete(ctx, r.collection, uid); err != nil {
		return fmt.Errorf("delete profile %s: %w", uid, err)
	}
	return nil
}
