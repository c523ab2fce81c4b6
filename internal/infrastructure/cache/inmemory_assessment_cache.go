package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/risk"
)

// cacheEntry is a stored assessment with expiration
type cacheEntry struct {
	assessment *risk.Assessment
	expiresAt  time.Time
}

// InMemoryAssessmentCache implements risk.AssessmentCache using a local map.
// Suitable for single-instance deployments and testing; state is not shared
// across process instances.
type InMemoryAssessmentCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]cacheEntry
	config    risk.CacheConfig
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryAssessmentCache creates an in-memory assessment cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryAssessmentCache(config risk.CacheConfig) *InMemoryAssessmentCache {
	if config.AssessmentTTL == 0 {
		config.AssessmentTTL = risk.DefaultCacheConfig().AssessmentTTL
	}

	cache := &InMemoryAssessmentCache{
		entries:  make(map[uuid.UUID]cacheEntry),
		config:   config,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// GetLatest retrieves the cached latest assessment for a product.
// Returns nil, nil on a miss or an expired entry.
func (c *InMemoryAssessmentCache) GetLatest(ctx context.Context, productID uuid.UUID) (*risk.Assessment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[productID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	return e.assessment, nil
}

// SetLatest stores assessments as the latest per product
func (c *InMemoryAssessmentCache) SetLatest(ctx context.Context, ttl time.Duration, assessments ...*risk.Assessment) error {
	if ttl == 0 {
		ttl = c.config.AssessmentTTL
	}
	expiresAt := time.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range assessments {
		c.entries[a.ProductID] = cacheEntry{assessment: a, expiresAt: expiresAt}
	}
	return nil
}

// InvalidateProduct removes the cached assessment for one product
func (c *InMemoryAssessmentCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	return nil
}

// InvalidateAll removes all cached assessments
func (c *InMemoryAssessmentCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]cacheEntry)
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryAssessmentCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// Len returns the number of entries, including expired ones not yet cleaned up
func (c *InMemoryAssessmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryAssessmentCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryAssessmentCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Ensure InMemoryAssessmentCache implements risk.AssessmentCache
var _ risk.AssessmentCache = (*InMemoryAssessmentCache)(nil)
