package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultScanBatchSize = 100

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisAssessmentCache implements risk.AssessmentCache using Redis
type RedisAssessmentCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     risk.CacheConfig
	logger     *zap.Logger
}

// RedisAssessmentCacheOption is a functional option for configuring the cache
type RedisAssessmentCacheOption func(*RedisAssessmentCache)

// WithCacheConfig sets the cache configuration
func WithCacheConfig(config risk.CacheConfig) RedisAssessmentCacheOption {
	return func(c *RedisAssessmentCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisAssessmentCacheOption {
	return func(c *RedisAssessmentCache) {
		c.logger = logger
	}
}

// NewRedisAssessmentCache creates a new Redis-based assessment cache
func NewRedisAssessmentCache(cfg RedisConfig, opts ...RedisAssessmentCacheOption) (*RedisAssessmentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisAssessmentCache{
		client:     client,
		ownsClient: true,
		config:     risk.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisAssessmentCacheWithClient creates a cache with an existing Redis client.
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisAssessmentCacheWithClient(client *redis.Client, opts ...RedisAssessmentCacheOption) *RedisAssessmentCache {
	cache := &RedisAssessmentCache{
		client:     client,
		ownsClient: false,
		config:     risk.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// cachedAssessment is the wire form of an assessment in Redis
type cachedAssessment struct {
	ID              uuid.UUID     `json:"id"`
	ProductID       uuid.UUID     `json:"product_id"`
	ProductCode     string        `json:"product_code"`
	Score           float64       `json:"score"`
	Band            risk.RiskBand `json:"band"`
	HighRisk        bool          `json:"high_risk"`
	ModelVersion    string        `json:"model_version"`
	FeatureSnapshot string        `json:"feature_snapshot"`
	Recommendations string        `json:"recommendations"`
	CreatedAt       time.Time     `json:"created_at"`
}

func toCached(a *risk.Assessment) *cachedAssessment {
	return &cachedAssessment{
		ID:              a.ID,
		ProductID:       a.ProductID,
		ProductCode:     a.ProductCode,
		Score:           a.Score,
		Band:            a.Band,
		HighRisk:        a.HighRisk,
		ModelVersion:    a.ModelVersion,
		FeatureSnapshot: a.FeatureSnapshot,
		Recommendations: a.Recommendations,
		CreatedAt:       a.CreatedAt,
	}
}

func (c *cachedAssessment) toDomain() *risk.Assessment {
	a := &risk.Assessment{
		ProductID:       c.ProductID,
		ProductCode:     c.ProductCode,
		Score:           c.Score,
		Band:            c.Band,
		HighRisk:        c.HighRisk,
		ModelVersion:    c.ModelVersion,
		FeatureSnapshot: c.FeatureSnapshot,
		Recommendations: c.Recommendations,
	}
	a.BaseAggregateRoot = shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
		},
	}
	return a
}

func (c *RedisAssessmentCache) key(productID uuid.UUID) string {
	return c.config.KeyPrefix + productID.String()
}

// GetLatest retrieves the cached latest assessment for a product
func (c *RedisAssessmentCache) GetLatest(ctx context.Context, productID uuid.UUID) (*risk.Assessment, error) {
	data, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment from cache: %w", err)
	}

	var cached cachedAssessment
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupt entry, drop it and treat as a miss
		c.logger.Warn("dropping corrupt cached assessment",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		_ = c.client.Del(ctx, c.key(productID)).Err()
		return nil, nil
	}

	return cached.toDomain(), nil
}

// SetLatest stores assessments as the latest per product
func (c *RedisAssessmentCache) SetLatest(ctx context.Context, ttl time.Duration, assessments ...*risk.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = c.config.AssessmentTTL
	}

	pipe := c.client.Pipeline()
	for _, a := range assessments {
		data, err := json.Marshal(toCached(a))
		if err != nil {
			return fmt.Errorf("failed to marshal assessment: %w", err)
		}
		pipe.Set(ctx, c.key(a.ProductID), data, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache assessments: %w", err)
	}
	return nil
}

// InvalidateProduct removes the cached assessment for one product
func (c *RedisAssessmentCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached assessment: %w", err)
	}
	return nil
}

// InvalidateAll removes all cached assessments using SCAN to avoid blocking Redis
func (c *RedisAssessmentCache) InvalidateAll(ctx context.Context) error {
	pattern := c.config.KeyPrefix + "*"
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cached assessments: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cached assessments: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Close closes the Redis client if this cache owns it
func (c *RedisAssessmentCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisAssessmentCache implements risk.AssessmentCache
var _ risk.AssessmentCache = (*RedisAssessmentCache)(nil)
