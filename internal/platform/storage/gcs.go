// File: internal/platform/storage/gcs.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// GCSBucket is a Bucket backed by Cloud Storage.
type GCSBucket struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
	logger *zap.Logger
}

func NewGCSBucket(client *gcs.Client, name string, logger *zap.Logger) *GCSBucket {
	logger.Info("Cloud Storage bucket configured", zap.String("bucket", name))
	return &GCSBucket{client: client, bucket: client.Bucket(name), name: name, logger: logger.Named("gcs")}
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	it := b.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", b.name, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (b *GCSBucket) Exists(ctx context.Context, name string) (bool, error) {
	_, err := b.bucket.Object(name).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

func (b *GCSBucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := b.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return rc, nil
}

func (b *GCSBucket) Write(ctx context.Context, name, contentType string, data []byte) error {
	wc := b.bucket.Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalising %s: %w", name, err)
	}
	return nil
}

func (b *GCSBucket) Close() error {
	return b.client.Close()
}
