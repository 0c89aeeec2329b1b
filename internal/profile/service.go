// File: internal/profile/service.go
package profile

import (
	"context"
	"errors"
	"strings"

	"propspot_backend/internal/common"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"

	"go.uber.org/zap"
)

// Service defines profile lookups and mutations.
type Service interface {
	// Get returns (nil, nil) when no profile exists for uid.
	Get(ctx context.Context, uid string) (*UserProfile, error)
	List(ctx context.Context) ([]UserProfile, error)
	UpdateName(ctx context.Context, uid, name string) (*UserProfile, error)
	UpdateCapabilities(ctx context.Context, uid string, req AdminUpdateProfileRequest) (*UserProfile, error)
	Delete(ctx context.Context, uid string) error
	Invalidate(uid string)
}

// ServiceImplementation implements Service with a read-through cache in front of the repository.
type ServiceImplementation struct {
	repo   Repository
	cache  *profileCache
	logger *zap.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		cache:  newProfileCache(cfg.ProfileCacheSize, cfg.ProfileCacheTTL),
		logger: logger.Named("profile_service"),
	}
}

func (s *ServiceImplementation) Get(ctx context.Context, uid string) (*UserProfile, error) {
	if uid == "" {
		return nil, nil
	}
	if p, ok := s.cache.Get(uid); ok {
		return p, nil
	}
	p, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.cache.Set(p)
	return p, nil
}

func (s *ServiceImplementation) List(ctx context.Context) ([]UserProfile, error) {
	return s.repo.List(ctx)
}

// UpdateName lets a user change their own display name. Nothing else on the profile is self-service.
func (s *ServiceImplementation) UpdateName(ctx context.Context, uid, name string) (*UserProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrBadRequest.WithDetails("Name must not be empty.")
	}
	return s.update(ctx, uid, map[string]interface{}{FieldName: name})
}

func (s *ServiceImplementation) UpdateCapabilities(ctx context.Context, uid string, req AdminUpdateProfileRequest) (*UserProfile, error) {
	fields := req.Fields()
	if len(fields) == 0 {
		return nil, common.ErrBadRequest.WithDetails("No capability changes supplied.")
	}
	p, err := s.update(ctx, uid, fields)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Profile capabilities changed", zap.String("uid", uid), zap.Any("changes", fields))
	return p, nil
}

func (s *ServiceImplementation) update(ctx context.Context, uid string, fields map[string]interface{}) (*UserProfile, error) {
	s.cache.Invalidate(uid)
	if err := s.repo.Update(ctx, uid, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found.")
		}
		s.logger.Error("Failed to update profile", zap.String("uid", uid), zap.Error(err))
		return nil, err
	}
	return s.Get(ctx, uid)
}

func (s *ServiceImplementation) Delete(ctx context.Context, uid string) error {
	s.cache.Invalidate(uid)
	return s.repo.Delete(ctx, uid)
}

// Invalidate drops any cached copy of uid's profile.
func (s *ServiceImplementation) Invalidate(uid string) {
	s.cache.Invalidate(uid)
}

// DirectLookup reads profiles straight from the repository on every call. Privilege
// checks use it so a revoked flag applies on the next request, whichever process wrote it.
type DirectLookup struct {
	repo Repository
}

// NewDirectLookup creates an uncached profile lookup.
func NewDirectLookup(repo Repository) *DirectLookup {
	return &DirectLookup{repo: repo}
}

// Get returns (nil, nil) when no profile exists for uid.
func (l *DirectLookup) Get(ctx context.Context, uid string) (*UserProfile, error) {
	if uid == "" {
		return nil, nil
	}
	return l.repo.FindByID(ctx, uid)
}
