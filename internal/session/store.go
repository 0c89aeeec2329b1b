// File: internal/session/store.go
package session

import (
	"context"
	"fmt"

	"propspot_backend/internal/observable"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/shared"

	"go.uber.org/zap"
)

// State is one published session value.
type State struct {
	LoggedIn bool                 `json:"loggedIn"`
	User     *profile.UserProfile `json:"user"`
	Loading  bool                 `json:"loading"`
}

// Initial is the state before the identity provider has reported anything.
func Initial() State {
	return State{Loading: true}
}

// Anonymous is the resolved state of a caller without a credential.
func Anonymous() State {
	return State{}
}

// ProfileLookup resolves a credential uid to its profile, returning (nil, nil) when there is none.
type ProfileLookup interface {
	Get(ctx context.Context, uid string) (*profile.UserProfile, error)
}

// Store holds the current session and publishes every change.
type Store struct {
	cell     *observable.Cell[State]
	profiles ProfileLookup
	logger   *zap.Logger
}

// NewStore creates a store in the loading state.
func NewStore(profiles ProfileLookup, logger *zap.Logger) *Store {
	return &Store{
		cell:     observable.New(Initial()),
		profiles: profiles,
		logger:   logger,
	}
}

// State returns the current session.
func (s *Store) State() State {
	return s.cell.Get()
}

// Subscribe returns a channel primed with the current session and fed every later one.
func (s *Store) Subscribe() (<-chan State, func()) {
	return s.cell.Subscribe()
}

// OnCredentialChange resolves the session for identity, or for no identity when it is nil.
// A signed-in caller without a profile is published as logged in with a nil user.
// When the profile lookup fails the anonymous state is published and the error returned.
func (s *Store) OnCredentialChange(ctx context.Context, identity *shared.Identity) error {
	if identity == nil {
		s.cell.Set(Anonymous())
		return nil
	}

	p, err := s.profiles.Get(ctx, identity.UID)
	if err != nil {
		s.logger.Error("Profile lookup failed while resolving session", zap.String("uid", identity.UID), zap.Error(err))
		s.cell.Set(Anonymous())
		return fmt.Errorf("resolving session for %s: %w", identity.UID, err)
	}

	s.cell.Set(State{LoggedIn: true, User: p, Loading: false})
	return nil
}
