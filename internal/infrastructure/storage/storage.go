// Package storage provides object storage backends for model artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/stocksense/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrArtifactNotFound is returned when the requested artifact does not exist
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore persists serialized model artifacts under opaque keys
type ArtifactStore interface {
	// Put stores an artifact under the given key, overwriting any existing one
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves an artifact by key.
	// Returns ErrArtifactNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes an artifact. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an artifact is present
	Exists(ctx context.Context, key string) (bool, error)
}

// NewArtifactStore creates the artifact store selected by configuration
func NewArtifactStore(cfg *config.StorageConfig, logger *zap.Logger) (ArtifactStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	switch cfg.Backend {
	case "s3":
		return NewS3ArtifactStore(cfg, WithLogger(logger))
	case "local":
		return NewLocalArtifactStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
