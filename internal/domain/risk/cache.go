package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AssessmentCache caches the latest assessment per product so dashboard and
// batch prediction reads do not hit the database on every request
type AssessmentCache interface {
	// GetLatest retrieves the cached latest assessment for a product.
	// Returns nil, nil on a cache miss.
	GetLatest(ctx context.Context, productID uuid.UUID) (*Assessment, error)

	// SetLatest stores assessments as the latest per product with the specified TTL.
	// If ttl is 0, implementation should use a default TTL.
	SetLatest(ctx context.Context, ttl time.Duration, assessments ...*Assessment) error

	// InvalidateProduct removes the cached assessment for one product
	InvalidateProduct(ctx context.Context, productID uuid.UUID) error

	// InvalidateAll removes all cached assessments, typically after a batch
	// assessment run or a model activation
	InvalidateAll(ctx context.Context) error

	// Close releases any resources held by the cache
	Close() error
}

// CacheConfig holds configuration for the assessment cache
type CacheConfig struct {
	// AssessmentTTL is the time-to-live for cached assessments (default: 15m)
	AssessmentTTL time.Duration
	// KeyPrefix namespaces the cache keys (default: "risk:assessment:")
	KeyPrefix string
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		AssessmentTTL: 15 * time.Minute,
		KeyPrefix:     "risk:assessment:",
	}
}
