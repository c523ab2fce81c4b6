package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// InventoryLevel tracks the current stock position of a single product.
// It is the aggregate root for inventory operations.
type InventoryLevel struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentStock  int        `gorm:"not null;default:0"`
	MinStock      int        `gorm:"not null;default:0"` // Snapshot of the product minimum, kept in sync on writes
	ReorderPoint  int        `gorm:"not null;default:0"`
	LastRestockAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (InventoryLevel) TableName() string {
	return "inventory_levels"
}

// NewInventoryLevel creates a new inventory level for a product
func NewInventoryLevel(productID uuid.UUID, currentStock, minStock, reorderPoint int) (*InventoryLevel, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if currentStock < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Current stock cannot be negative")
	}
	if minStock < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}

	level := &InventoryLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		CurrentStock:      currentStock,
		MinStock:          minStock,
		ReorderPoint:      reorderPoint,
	}

	return level, nil
}

// Restock records a replenishment delivery
func (l *InventoryLevel) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}

	now := time.Now()
	l.CurrentStock += quantity
	l.LastRestockAt = &now
	l.UpdatedAt = now
	l.IncrementVersion()

	l.AddDomainEvent(NewStockReplenishedEvent(l, quantity))

	return nil
}

// Consume deducts sold or used stock
func (l *InventoryLevel) Consume(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Consume quantity must be positive")
	}
	if quantity > l.CurrentStock {
		return shared.ErrInsufficientStock
	}

	wasBelowMin := l.IsBelowMinimum()

	l.CurrentStock -= quantity
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewStockConsumedEvent(l, quantity))

	// Only signal the threshold crossing once
	if !wasBelowMin && l.IsBelowMinimum() {
		l.AddDomainEvent(NewStockBelowMinimumEvent(l))
	}

	return nil
}

// Adjust sets the stock to a counted quantity, recording the reason
func (l *InventoryLevel) Adjust(countedQuantity int, reason string) error {
	if countedQuantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	oldQuantity := l.CurrentStock
	l.CurrentStock = countedQuantity
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewStockAdjustedEvent(l, oldQuantity, countedQuantity, reason))

	if l.IsBelowMinimum() && oldQuantity > l.MinStock {
		l.AddDomainEvent(NewStockBelowMinimumEvent(l))
	}

	return nil
}

// SetMinStock updates the minimum stock snapshot
func (l *InventoryLevel) SetMinStock(minStock int) error {
	if minStock < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}

	l.MinStock = minStock
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// SetReorderPoint updates the reorder point
func (l *InventoryLevel) SetReorderPoint(point int) error {
	if point < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Reorder point cannot be negative")
	}

	l.ReorderPoint = point
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// IsBelowMinimum returns true if stock is at or below the minimum level
func (l *InventoryLevel) IsBelowMinimum() bool {
	return l.MinStock > 0 && l.CurrentStock <= l.MinStock
}

// IsStockedOut returns true when nothing is on hand
func (l *InventoryLevel) IsStockedOut() bool {
	return l.CurrentStock == 0
}

// DaysSinceRestock returns whole days since the last recorded restock.
// Products that were never restocked report the age of the record instead.
func (l *InventoryLevel) DaysSinceRestock(now time.Time) int {
	restockedAt := l.CreatedAt
	if l.LastRestockAt != nil {
		restockedAt = *l.LastRestockAt
	}
	days := int(now.Sub(restockedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CoverageDays estimates how many days the current stock lasts at the given
// average daily demand. Zero demand reports an effectively unbounded coverage.
func (l *InventoryLevel) CoverageDays(avgDailyDemand float64) float64 {
	if avgDailyDemand <= 0 {
		avgDailyDemand = 0.1
	}
	return float64(l.CurrentStock) / avgDailyDemand
}
