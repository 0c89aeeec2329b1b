// File: internal/firebase/service.go
package firebase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"propspot_backend/internal/config"
	"propspot_backend/internal/shared"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewApp initializes the Firebase Admin SDK. With FIREBASE_USE_EMULATOR set, the auth and
// Firestore clients created from the app talk to the local emulators without credentials.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseUseEmulator {
		// the SDKs pick the emulator hosts up from the environment
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.FirestoreEmulatorHost); err != nil {
			return nil, err
		}
		if err := os.Setenv("FIREBASE_AUTH_EMULATOR_HOST", cfg.FirebaseAuthEmulatorHost); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithoutAuthentication())
		logger.Info("Using Firebase emulators",
			zap.String("firestore", cfg.FirestoreEmulatorHost), zap.String("auth", cfg.FirebaseAuthEmulatorHost))
	} else {
		if cfg.FirebaseServiceAccountKeyPath == "" {
			logger.Error("Firebase service account key path is not configured.")
			return nil, fmt.Errorf("firebase service account key path is required")
		}
		opts = append(opts, option.WithCredentialsFile(filepath.Clean(cfg.FirebaseServiceAccountKeyPath)))
	}

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	logger.Info("Firebase Admin SDK initialized successfully.")
	return app, nil
}

// NewFirestoreClient opens the Firestore client the document store runs on.
func NewFirestoreClient(ctx context.Context, app *firebase.App, logger *zap.Logger) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		logger.Error("Failed to get Firestore client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}
	return client, nil
}

// FirebaseService is the identity provider backed by Firebase Authentication.
type FirebaseService struct {
	authClient *auth.Client
	logger     *zap.Logger
}

var _ shared.IdentityProvider = (*FirebaseService)(nil)

// NewFirebaseService creates the auth client from an initialized app.
func NewFirebaseService(ctx context.Context, app *firebase.App, logger *zap.Logger) (*FirebaseService, error) {
	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}
	return &FirebaseService{authClient: authClient, logger: logger.Named("firebase_auth")}, nil
}

func (s *FirebaseService) CreateCredential(ctx context.Context, req shared.CreateCredentialRequest) (*shared.Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		EmailVerified(false)
	if req.DisplayName != "" {
		params = params.DisplayName(req.DisplayName)
	}

	u, err := s.authClient.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, shared.ErrCredentialExists
		}
		s.logger.Error("Failed to create Firebase user", zap.String("email", req.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to create Firebase user: %w", err)
	}
	s.logger.Info("Firebase user created", zap.String("uid", u.UID))
	return &shared.Identity{UID: u.UID, Email: u.Email, Name: u.DisplayName, Provider: "password"}, nil
}

// VerifyToken verifies a Firebase ID token. Any rejection is reported as shared.ErrInvalidToken.
func (s *FirebaseService) VerifyToken(ctx context.Context, idToken string) (*shared.Identity, error) {
	if idToken == "" {
		return nil, shared.ErrInvalidToken
	}
	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return identityFromToken(token), nil
}

// SignOut revokes all refresh tokens for a given user.
func (s *FirebaseService) SignOut(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

func (s *FirebaseService) DeleteCredential(ctx context.Context, uid string) error {
	if err := s.authClient.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			s.logger.Info("Firebase user already deleted", zap.String("uid", uid))
			return nil
		}
		s.logger.Error("Failed to delete Firebase user", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to delete Firebase user: %w", err)
	}
	s.logger.Info("Firebase user deleted", zap.String("uid", uid))
	return nil
}

func identityFromToken(token *auth.Token) *shared.Identity {
	id := &shared.Identity{UID: token.UID, Provider: token.Firebase.SignInProvider}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id
}
