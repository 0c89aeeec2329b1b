// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"propspot_backend/internal/account"
	"propspot_backend/internal/app"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"
	"propspot_backend/internal/firebase"
	"propspot_backend/internal/jobs"
	"propspot_backend/internal/prefs"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/prop"
	"propspot_backend/internal/registration"
	"propspot_backend/internal/session"
	"propspot_backend/internal/shared"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*application, func(), error) {
	wire.Build(
		// Platform Layer
		provideContext,
		provideLogger,
		provideJournalDB,
		provideBucket,
		provideESClient,

		// Firebase
		firebase.NewApp,
		provideFirestoreClient,
		docstore.NewFirestoreStore,
		wire.Bind(new(docstore.Store), new(*docstore.FirestoreStore)),
		firebase.NewFirebaseService,
		wire.Bind(new(shared.IdentityProvider), new(*firebase.FirebaseService)),

		// Profiles
		provideProfileRepository,
		profile.NewService,
		wire.Bind(new(profile.Service), new(*profile.ServiceImplementation)),
		profile.NewDirectLookup,
		wire.Bind(new(session.ProfileLookup), new(*profile.DirectLookup)),
		wire.Bind(new(registration.ProfileReader), new(*profile.ServiceImplementation)),
		wire.Bind(new(account.CacheInvalidator), new(*profile.ServiceImplementation)),
		profile.NewHandler,

		// Props
		providePropRepository,
		providePropMirror,
		prop.NewService,
		wire.Bind(new(prop.Service), new(*prop.ServiceImplementation)),
		prop.NewHandler,

		// Registration
		registration.NewService,
		wire.Bind(new(registration.Service), new(*registration.ServiceImplementation)),
		registration.NewHandler,

		// Preferences
		prefs.NewService,
		prefs.NewHandler,
		wire.Bind(new(account.PrefsDeleter), new(*prefs.Service)),

		// Account deletion
		account.NewGORMJournal,
		wire.Bind(new(account.ProfileStore), new(profile.Repository)),
		account.NewDeletionService,
		provideAccountHandler,

		// Jobs
		jobs.NewImageResizeJob,
		providePropIndexJob,

		// Application Layer
		wire.Struct(new(app.Handlers), "*"),
		wire.Struct(new(app.Jobs), "*"),
		app.NewServer,
		provideApplication,
	)
	return nil, nil, nil
}
