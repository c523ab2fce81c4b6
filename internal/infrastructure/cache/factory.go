package cache

import (
	"fmt"

	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AssessmentCacheFactory creates assessment caches based on configuration
type AssessmentCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           risk.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AssessmentCacheFactoryOption is a functional option for configuring the factory
type AssessmentCacheFactoryOption func(*AssessmentCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AssessmentCacheFactoryOption {
	return func(f *AssessmentCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache when
// Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) AssessmentCacheFactoryOption {
	return func(f *AssessmentCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithAssessmentCacheConfig sets the cache configuration
func WithAssessmentCacheConfig(cfg risk.CacheConfig) AssessmentCacheFactoryOption {
	return func(f *AssessmentCacheFactory) {
		f.cacheConfig = cfg
	}
}

// NewAssessmentCacheFactory creates a new factory
func NewAssessmentCacheFactory(cfg config.RedisConfig, opts ...AssessmentCacheFactoryOption) *AssessmentCacheFactory {
	f := &AssessmentCacheFactory{
		redisConfig:           cfg,
		cacheConfig:           risk.DefaultCacheConfig(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed assessment cache
func (f *AssessmentCacheFactory) CreateRedisCache() (risk.AssessmentCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisAssessmentCache(redisCfg,
		WithCacheConfig(f.cacheConfig),
		WithCacheLogger(f.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis assessment cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory assessment cache.
// WARNING: in-memory caches do not share state across process instances,
// so dashboard reads may serve stale scores in multi-instance deployments.
func (f *AssessmentCacheFactory) CreateInMemoryCache() risk.AssessmentCache {
	return NewInMemoryAssessmentCache(f.cacheConfig)
}

// CreateCache creates an assessment cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory when allowed.
func (f *AssessmentCacheFactory) CreateCache() (risk.AssessmentCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis assessment cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for assessment cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory assessment cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
