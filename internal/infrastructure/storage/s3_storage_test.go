package storage

import (
	"testing"

	infraconfig "github.com/stocksense/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validStorageConfig() *infraconfig.StorageConfig {
	return &infraconfig.StorageConfig{
		Backend:   "s3",
		Bucket:    "stocksense-models",
		Region:    "us-east-1",
		Endpoint:  "localhost:9000",
		AccessKey: "test-access",
		SecretKey: "test-secret",
	}
}

func TestNewS3ArtifactStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*infraconfig.StorageConfig)
		nilCfg  bool
		wantErr string
	}{
		{
			name:    "nil config",
			nilCfg:  true,
			wantErr: "storage configuration is required",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *infraconfig.StorageConfig) { c.Bucket = "" },
			wantErr: "storage bucket is required",
		},
		{
			name:    "missing access key",
			mutate:  func(c *infraconfig.StorageConfig) { c.AccessKey = "" },
			wantErr: "storage access key is required",
		},
		{
			name:    "missing secret key",
			mutate:  func(c *infraconfig.StorageConfig) { c.SecretKey = "" },
			wantErr: "storage secret key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *infraconfig.StorageConfig
			if !tt.nilCfg {
				cfg = validStorageConfig()
				tt.mutate(cfg)
			}

			_, err := NewS3ArtifactStore(cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewS3ArtifactStore_Valid(t *testing.T) {
	store, err := NewS3ArtifactStore(validStorageConfig(), WithLogger(zap.NewNop()))

	require.NoError(t, err)
	assert.Equal(t, "stocksense-models", store.Bucket())
}

func TestNewS3ArtifactStore_DefaultsRegion(t *testing.T) {
	cfg := validStorageConfig()
	cfg.Region = ""
	cfg.Endpoint = ""

	store, err := NewS3ArtifactStore(cfg)

	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestNewArtifactStore_SelectsBackend(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		cfg := &infraconfig.StorageConfig{Backend: "local", LocalDir: t.TempDir()}

		store, err := NewArtifactStore(cfg, zap.NewNop())

		require.NoError(t, err)
		assert.IsType(t, &LocalArtifactStore{}, store)
	})

	t.Run("s3", func(t *testing.T) {
		cfg := validStorageConfig()

		store, err := NewArtifactStore(cfg, zap.NewNop())

		require.NoError(t, err)
		assert.IsType(t, &S3ArtifactStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := &infraconfig.StorageConfig{Backend: "gcs"}

		_, err := NewArtifactStore(cfg, zap.NewNop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewArtifactStore(nil, zap.NewNop())

		require.Error(t, err)
	})
}
