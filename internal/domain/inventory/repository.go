package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// InventoryRepository defines the interface for inventory level persistence
type InventoryRepository interface {
	// FindByID finds an inventory level by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryLevel, error)

	// FindByProductID finds the inventory level for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*InventoryLevel, error)

	// FindByProductIDs finds inventory levels for multiple products
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]InventoryLevel, error)

	// FindAll finds all inventory levels matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryLevel, error)

	// FindBelowMinimum finds levels at or below their minimum stock
	FindBelowMinimum(ctx context.Context) ([]InventoryLevel, error)

	// Save creates or updates an inventory level
	Save(ctx context.Context, level *InventoryLevel) error

	// SaveBatch creates or updates multiple inventory levels
	SaveBatch(ctx context.Context, levels []*InventoryLevel) error

	// Delete deletes an inventory level
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts inventory levels matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// DemandRepository defines the interface for demand history persistence
type DemandRepository interface {
	// Save persists a single demand record
	Save(ctx context.Context, record *DemandRecord) error

	// SaveBatch persists multiple demand records
	SaveBatch(ctx context.Context, records []*DemandRecord) error

	// FindByProduct finds demand records for a product within a date range
	FindByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]DemandRecord, error)

	// StatsByProduct computes demand statistics for a single product
	StatsByProduct(ctx context.Context, productID uuid.UUID) (*DemandStats, error)

	// StatsAll computes demand statistics for every product with history
	StatsAll(ctx context.Context) (map[uuid.UUID]DemandStats, error)

	// CountByProduct counts the demand records of a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// DeleteOlderThan removes records older than the given date
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
