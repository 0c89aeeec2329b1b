// File: internal/account/service.go
package account

import (
	"context"
	"errors"
	"fmt"

	"propspot_backend/internal/metrics"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/shared"

	"go.uber.org/zap"
)

// MaxUIDLength is the longest uid the identity provider issues.
const MaxUIDLength = 128

var (
	// ErrInvalidUID is returned for an empty or oversized target uid.
	ErrInvalidUID = errors.New("invalid uid")
	// ErrPermissionDenied is returned when the caller cannot be verified or is not an administrator.
	ErrPermissionDenied = errors.New("must be an administrator to delete users")
)

// ProfileStore is what deletion needs from the profiles collection. Reads bypass any cache:
// the administrator check must see the stored flag.
type ProfileStore interface {
	FindByID(ctx context.Context, uid string) (*profile.UserProfile, error)
	Delete(ctx context.Context, uid string) error
}

// PrefsDeleter removes a user's preferences document.
type PrefsDeleter interface {
	Delete(ctx context.Context, uid string) error
}

// CacheInvalidator drops cached profile copies.
type CacheInvalidator interface {
	Invalidate(uid string)
}

// DeletionService deletes a user's credential and profile on behalf of an administrator.
type DeletionService struct {
	identity shared.IdentityProvider
	profiles ProfileStore
	prefs    PrefsDeleter
	cache    CacheInvalidator
	journal  Journal
	logger   *zap.Logger
}

func NewDeletionService(
	identity shared.IdentityProvider,
	profiles ProfileStore,
	prefs PrefsDeleter,
	cache CacheInvalidator,
	journal Journal,
	logger *zap.Logger,
) *DeletionService {
	return &DeletionService{
		identity: identity,
		profiles: profiles,
		prefs:    prefs,
		cache:    cache,
		journal:  journal,
		logger:   logger.Named("account_deletion"),
	}
}

// ValidUID reports whether uid can name a credential.
func ValidUID(uid string) bool {
	return uid != "" && len(uid) <= MaxUIDLength
}

// DeleteUser verifies the caller, requires an administrator profile, then deletes the
// target's credential and profile. Each completed step is journaled so a retry resumes
// where the last attempt stopped.
func (s *DeletionService) DeleteUser(ctx context.Context, callerToken, targetUID string) error {
	if !ValidUID(targetUID) {
		return ErrInvalidUID
	}
	if callerToken == "" {
		return ErrPermissionDenied
	}

	caller, err := s.identity.VerifyToken(ctx, callerToken)
	if err != nil {
		s.logger.Warn("Delete user: caller token rejected", zap.Error(err))
		return ErrPermissionDenied
	}

	callerProfile, err := s.profiles.FindByID(ctx, caller.UID)
	if err != nil {
		s.logger.Error("Delete user: caller profile lookup failed", zap.String("callerUID", caller.UID), zap.Error(err))
		return fmt.Errorf("loading caller profile: %w", err)
	}
	if callerProfile == nil || !callerProfile.Administrator {
		s.logger.Warn("Delete user: caller is not an administrator", zap.String("callerUID", caller.UID))
		return ErrPermissionDenied
	}

	op, err := s.journal.Begin(ctx, KindDeleteUser, targetUID, caller.UID)
	if err != nil {
		return err
	}
	log := s.logger.With(zap.String("targetUID", targetUID), zap.String("callerUID", caller.UID), zap.Int("attempt", op.Attempts))

	steps := []struct {
		name     string
		run      func(context.Context, string) error
		required bool
	}{
		{StepDeleteCredential, s.identity.DeleteCredential, true},
		{StepDeleteProfile, s.deleteProfile, true},
		{StepDeletePrefs, s.prefs.Delete, false},
	}

	for _, step := range steps {
		if op.Done(step.name) {
			log.Debug("Delete user: step already done", zap.String("step", step.name))
			continue
		}
		if err := step.run(ctx, targetUID); err != nil {
			metrics.AccountStepsTotal.WithLabelValues(KindDeleteUser, step.name, "failed").Inc()
			if !step.required {
				log.Warn("Delete user: optional step failed", zap.String("step", step.name), zap.Error(err))
				continue
			}
			log.Error("Delete user: step failed", zap.String("step", step.name), zap.Error(err))
			if jerr := s.journal.MarkFailed(ctx, op, step.name, err); jerr != nil {
				log.Error("Delete user: could not record failure", zap.Error(jerr))
			}
			return fmt.Errorf("%s: %w", step.name, err)
		}
		metrics.AccountStepsTotal.WithLabelValues(KindDeleteUser, step.name, "done").Inc()
		if err := s.journal.MarkDone(ctx, op, step.name); err != nil {
			log.Error("Delete user: could not record step", zap.String("step", step.name), zap.Error(err))
			return err
		}
	}

	if err := s.journal.Complete(ctx, op); err != nil {
		return err
	}
	log.Info("User deleted")
	return nil
}

func (s *DeletionService) deleteProfile(ctx context.Context, uid string) error {
	s.cache.Invalidate(uid)
	return s.profiles.Delete(ctx, uid)
}
