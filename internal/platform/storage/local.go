// File: internal/platform/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// LocalBucket is a Bucket over a directory, used for development and tests.
// Object names are slash-separated paths relative to the root.
type LocalBucket struct {
	root   string
	logger *zap.Logger
}

// NewLocalBucket creates the root directory if needed.
func NewLocalBucket(root string, logger *zap.Logger) (*LocalBucket, error) {
	if root == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		logger.Error("Failed to create storage directory", zap.String("path", root), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", root, err)
	}
	logger.Info("Local image bucket configured", zap.String("path", root))
	return &LocalBucket{root: root, logger: logger.Named("local_bucket")}, nil
}

// resolve maps an object name to a path under root, refusing names that escape it.
func (b *LocalBucket) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		b.logger.Warn("Rejected object name outside bucket", zap.String("name", name))
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *LocalBucket) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", b.root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (b *LocalBucket) Exists(_ context.Context, name string) (bool, error) {
	p, err := b.resolve(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *LocalBucket) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := b.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return f, nil
}

func (b *LocalBucket) Write(_ context.Context, name, _ string, data []byte) error {
	p, err := b.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		// drop any partial file
		os.Remove(p)
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	b.logger.Debug("Object written", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

func (b *LocalBucket) Close() error { return nil }
