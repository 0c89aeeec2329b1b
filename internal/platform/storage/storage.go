// File: internal/platform/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"propspot_backend/internal/config"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrDisabled is returned by New when no bucket is configured.
var ErrDisabled = errors.New("image storage is not configured")

const localScheme = "file://"

// Bucket is the object storage the image jobs work against.
type Bucket interface {
	// List returns the names of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Write(ctx context.Context, name, contentType string, data []byte) error
	Close() error
}

// New opens the bucket named by STORAGE_BUCKET: "file://<dir>" selects a local
// directory, anything else is a Cloud Storage bucket name with an optional gs:// prefix.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Bucket, error) {
	name := strings.TrimSpace(cfg.StorageBucket)
	if name == "" {
		return nil, ErrDisabled
	}
	if strings.HasPrefix(name, localScheme) {
		return NewLocalBucket(strings.TrimPrefix(name, localScheme), logger)
	}

	var opts []option.ClientOption
	if !cfg.FirebaseUseEmulator && cfg.FirebaseServiceAccountKeyPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseServiceAccountKeyPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return NewGCSBucket(client, strings.TrimPrefix(name, "gs://"), logger), nil
}
