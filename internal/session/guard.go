// File: internal/session/guard.go
package session

import (
	"context"
	"errors"

	"propspot_backend/internal/profile"
)

var (
	// ErrNotAuthorized is returned when the resolved session lacks the required privilege.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrClosed is returned when the session store stops publishing before resolving.
	ErrClosed = errors.New("session store closed before resolving")
)

// Guard admits or rejects callers once their session has resolved.
type Guard struct {
	store *Store
}

func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// Resolved blocks until the session leaves the loading state and returns that state.
func (g *Guard) Resolved(ctx context.Context) (State, error) {
	states, cancel := g.store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case st, ok := <-states:
			if !ok {
				return State{}, ErrClosed
			}
			if !st.Loading {
				return st, nil
			}
		}
	}
}

// RequireAdmin succeeds only for a resolved session whose profile is an administrator.
func (g *Guard) RequireAdmin(ctx context.Context) error {
	st, err := g.Resolved(ctx)
	if err != nil {
		return err
	}
	if st.User == nil || !st.User.Administrator {
		return ErrNotAuthorized
	}
	return nil
}

// RequireCapability succeeds for a resolved session whose profile holds c.
func (g *Guard) RequireCapability(ctx context.Context, c profile.Capability) error {
	st, err := g.Resolved(ctx)
	if err != nil {
		return err
	}
	if !st.User.Has(c) {
		return ErrNotAuthorized
	}
	return nil
}
