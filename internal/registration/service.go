// File: internal/registration/service.go
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"propspot_backend/internal/common"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"
	"propspot_backend/internal/metrics"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/shared"

	"go.uber.org/zap"
)

// ProfileReader is the part of the profile service the workflow needs.
type ProfileReader interface {
	Get(ctx context.Context, uid string) (*profile.UserProfile, error)
	Invalidate(uid string)
}

// Service defines the registration and approval workflow.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (string, error)
	RegisterFederated(ctx context.Context, idToken string) (*profile.UserProfile, error)
	Approve(ctx context.Context, pendingID string, caps profile.Capabilities) (*profile.UserProfile, error)
	Reject(ctx context.Context, pendingID string) error
	ListPending(ctx context.Context) ([]PendingRegistration, error)
	IsApproved(ctx context.Context, uid string) (bool, error)
}

// ServiceImplementation moves new credentials through purgatory into profiles.
type ServiceImplementation struct {
	store     docstore.Store
	identity  shared.IdentityProvider
	profiles  ProfileReader
	purgatory string
	profileC  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new registration service.
func NewService(store docstore.Store, identity shared.IdentityProvider, profiles ProfileReader, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		store:     store,
		identity:  identity,
		profiles:  profiles,
		purgatory: cfg.PurgatoryCollection,
		profileC:  cfg.ProfilesCollection,
		logger:    logger.Named("registration_service"),
		now:       time.Now,
	}
}

// Register creates an email/password credential, parks it in purgatory and signs it out.
// The credential stays inert until an administrator approves it.
func (s *ServiceImplementation) Register(ctx context.Context, req RegisterRequest) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ident, err := s.identity.CreateCredential(ctx, shared.CreateCredentialRequest{
		Email:       email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		if errors.Is(err, shared.ErrCredentialExists) {
			return "", common.ErrConflict.WithDetails("An account with this email already exists.")
		}
		s.logger.Error("Registration step failed", zap.String("step", "create_credential"), zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("creating credential: %w", err)
	}

	if err := s.park(ctx, ident.UID, req.Name, email); err != nil {
		s.logger.Error("Registration step failed", zap.String("step", "write_pending"), zap.String("uid", ident.UID), zap.Error(err))
		return "", err
	}

	if err := s.identity.SignOut(ctx, ident.UID); err != nil {
		s.logger.Warn("Registration step failed", zap.String("step", "sign_out"), zap.String("uid", ident.UID), zap.Error(err))
	}

	metrics.RegistrationsTotal.WithLabelValues("registered").Inc()
	s.logger.Info("Registration pending approval", zap.String("uid", ident.UID))
	return ident.UID, nil
}

// RegisterFederated signs in a federated identity. A caller with a profile gets it back;
// anyone else is parked in purgatory, signed out and told to wait for approval.
func (s *ServiceImplementation) RegisterFederated(ctx context.Context, idToken string) (*profile.UserProfile, error) {
	ident, err := s.identity.VerifyToken(ctx, idToken)
	if err != nil {
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired token.")
	}

	existing, err := s.profiles.Get(ctx, ident.UID)
	if err != nil {
		return nil, fmt.Errorf("looking up profile: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if err := s.park(ctx, ident.UID, ident.Name, strings.ToLower(ident.Email)); err != nil {
		s.logger.Error("Federated registration step failed", zap.String("step", "write_pending"), zap.String("uid", ident.UID), zap.Error(err))
		return nil, err
	}
	if err := s.identity.SignOut(ctx, ident.UID); err != nil {
		s.logger.Warn("Federated registration step failed", zap.String("step", "sign_out"), zap.String("uid", ident.UID), zap.Error(err))
	}

	metrics.RegistrationsTotal.WithLabelValues("federated_pending").Inc()
	return nil, common.ErrPendingApproval
}

func (s *ServiceImplementation) park(ctx context.Context, uid, name, email string) error {
	pending := PendingRegistration{
		Name:         name,
		Email:        email,
		RegisteredAt: s.now().UTC(),
		Status:       StatusPending,
	}
	if err := s.store.Set(ctx, s.purgatory, uid, pending.ToFields(), false); err != nil {
		return mapStoreErr(fmt.Errorf("writing pending registration: %w", err))
	}
	return nil
}

// Approve promotes a pending registration to a profile in one transaction.
// Approving a uid that already has a profile returns that profile unchanged.
func (s *ServiceImplementation) Approve(ctx context.Context, pendingID string, caps profile.Capabilities) (*profile.UserProfile, error) {
	var approved *profile.UserProfile
	alreadyApproved := false

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		alreadyApproved = false
		existing, err := tx.Get(s.profileC, pendingID)
		if err != nil {
			return err
		}
		pendingDoc, err := tx.Get(s.purgatory, pendingID)
		if err != nil {
			return err
		}

		if existing != nil {
			approved, err = profile.FromDocument(*existing)
			if err != nil {
				return err
			}
			alreadyApproved = true
			if pendingDoc != nil {
				return tx.Delete(s.purgatory, pendingID)
			}
			return nil
		}
		if pendingDoc == nil {
			return common.ErrNotFound.WithDetails("No pending registration with this id.")
		}

		pending, err := fromDocument(*pendingDoc)
		if err != nil {
			return err
		}
		p := &profile.UserProfile{
			ID:       pendingID,
			Name:     pending.Name,
			Email:    pending.Email,
			Approved: true,
			Created:  s.now().UTC(),
		}
		caps.Apply(p)
		if err := tx.Set(s.profileC, pendingID, p.ToFields()); err != nil {
			return err
		}
		approved = p
		return tx.Delete(s.purgatory, pendingID)
	})
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Approval failed", zap.String("uid", pendingID), zap.Error(err))
		return nil, mapStoreErr(fmt.Errorf("approving %s: %w", pendingID, err))
	}

	s.profiles.Invalidate(pendingID)
	if alreadyApproved {
		s.logger.Info("Registration already approved", zap.String("uid", pendingID))
	} else {
		metrics.RegistrationsTotal.WithLabelValues("approved").Inc()
		s.logger.Info("Registration approved", zap.String("uid", pendingID), zap.Bool("administrator", caps.Administrator))
	}
	return approved, nil
}

// Reject removes the credential and then the pending record, so a failed
// credential delete leaves the record in place for a retry.
func (s *ServiceImplementation) Reject(ctx context.Context, pendingID string) error {
	doc, err := s.store.Get(ctx, s.purgatory, pendingID)
	if err != nil {
		return mapStoreErr(err)
	}
	if doc == nil {
		return common.ErrNotFound.WithDetails("No pending registration with this id.")
	}

	if err := s.identity.DeleteCredential(ctx, pendingID); err != nil {
		s.logger.Error("Rejection step failed", zap.String("step", "delete_credential"), zap.String("uid", pendingID), zap.Error(err))
		return fmt.Errorf("deleting credential: %w", err)
	}
	if err := s.store.Delete(ctx, s.purgatory, pendingID); err != nil {
		s.logger.Error("Rejection step failed", zap.String("step", "delete_pending"), zap.String("uid", pendingID), zap.Error(err))
		return mapStoreErr(err)
	}

	metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
	s.logger.Info("Registration rejected", zap.String("uid", pendingID))
	return nil
}

func (s *ServiceImplementation) ListPending(ctx context.Context) ([]PendingRegistration, error) {
	docs, err := s.store.Query(ctx, s.purgatory, docstore.Eq(fieldStatus, StatusPending))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	out := make([]PendingRegistration, 0, len(docs))
	for _, d := range docs {
		r, err := fromDocument(d)
		if err != nil {
			s.logger.Warn("Skipping undecodable pending registration", zap.String("id", d.ID), zap.Error(err))
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

// IsApproved reports whether uid has a profile marked approved.
func (s *ServiceImplementation) IsApproved(ctx context.Context, uid string) (bool, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	return p != nil && p.Approved, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, docstore.ErrNotConnected) {
		return common.ErrNotConnected
	}
	return err
}
