package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/config"
)

// ErrKeyNotFound is returned when a stored artifact does not exist.
var ErrKeyNotFound = errors.New("storage key not found")

// Backend abstracts where mirrored artifacts live. The pipeline itself only
// writes to the local media root; a Backend is how serving deployments read
// artifacts from somewhere else.
type Backend interface {
	// Store stores data from a reader
	Store(ctx context.Context, key string, reader io.Reader) error

	// Retrieve retrieves stored data
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes stored data
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)
}

// NewBackend constructs the mirror backend named by the configuration. An
// empty type disables mirroring; both the backend and the error are nil.
func NewBackend(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalStorage(cfg.LocalPath, logger)
	case "s3":
		return NewS3Storage(ctx, cfg.S3Config.Bucket, cfg.S3Config.Prefix, cfg.S3Config.Region, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
