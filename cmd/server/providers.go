// File: cmd/server/providers.go
package main

import (
	"context"
	"errors"
	"log"

	"propspot_backend/internal/account"
	"propspot_backend/internal/app"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"
	appfirebase "propspot_backend/internal/firebase"
	"propspot_backend/internal/jobs"
	"propspot_backend/internal/platform/database"
	platformElasticsearch "propspot_backend/internal/platform/elasticsearch"
	"propspot_backend/internal/platform/logger"
	"propspot_backend/internal/platform/storage"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/prop"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application is what the server command runs.
type application struct {
	Server   *app.Server
	ESClient *platformElasticsearch.ESClientWrapper
	Logger   *zap.Logger
}

func provideApplication(server *app.Server, es *platformElasticsearch.ESClientWrapper, logger *zap.Logger) *application {
	return &application{Server: server, ESClient: es, Logger: logger}
}

func provideContext() context.Context {
	return context.Background()
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}

func provideFirestoreClient(ctx context.Context, fbApp *firebase.App, logger *zap.Logger) (*firestore.Client, func(), error) {
	client, err := appfirebase.NewFirestoreClient(ctx, fbApp, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing Firestore client", zap.Error(err))
		}
	}, nil
}

// provideJournalDB opens the operations database and migrates the account journal.
func provideJournalDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger, &account.AccountOperation{})
	if err != nil {
		return nil, nil, err
	}
	return db, func() { database.Close(db, logger) }, nil
}

func providePropRepository(store docstore.Store, cfg *config.Config) prop.Repository {
	return prop.NewRepository(store, cfg.PropsCollection)
}

func providePropMirror(repo prop.Repository, cfg *config.Config, logger *zap.Logger) *prop.Mirror {
	return prop.NewMirror(repo, cfg.PropsCollection, logger)
}

func provideProfileRepository(store docstore.Store, cfg *config.Config) profile.Repository {
	return profile.NewRepository(store, cfg.ProfilesCollection)
}

func provideAccountHandler(svc *account.DeletionService, cfg *config.Config, logger *zap.Logger) *account.Handler {
	return account.NewHandler(svc, cfg.CORSAllowedOrigin, logger)
}

// provideBucket returns a nil bucket when STORAGE_BUCKET is unset.
func provideBucket(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Bucket, func(), error) {
	bucket, err := storage.New(ctx, cfg, logger)
	if errors.Is(err, storage.ErrDisabled) {
		logger.Info("Image storage not configured (STORAGE_BUCKET), image jobs disabled.")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return bucket, func() {
		if err := bucket.Close(); err != nil {
			logger.Error("Error closing image bucket", zap.Error(err))
		}
	}, nil
}

// provideESClient returns a nil client when ELASTICSEARCH_URL is unset.
func provideESClient(cfg *config.Config, logger *zap.Logger) (*platformElasticsearch.ESClientWrapper, error) {
	client, err := platformElasticsearch.NewClient(cfg, logger)
	if errors.Is(err, platformElasticsearch.ErrDisabled) {
		logger.Info("Elasticsearch not configured (ELASTICSEARCH_URL), prop indexing disabled.")
		return nil, nil
	}
	return client, err
}

func providePropIndexJob(mirror *prop.Mirror, es *platformElasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) *jobs.PropIndexJob {
	if es == nil {
		return nil
	}
	return jobs.NewPropIndexJob(mirror, platformElasticsearch.NewPropsIndexer(es, logger), cfg, logger)
}
