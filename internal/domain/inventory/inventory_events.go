package inventory

import (
	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeInventoryLevel = "InventoryLevel"

// Event type constants
const (
	EventTypeStockReplenished  = "StockReplenished"
	EventTypeStockConsumed     = "StockConsumed"
	EventTypeStockAdjusted     = "StockAdjusted"
	EventTypeStockBelowMinimum = "StockBelowMinimum"
)

// StockReplenishedEvent is published when a restock delivery is recorded
type StockReplenishedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	CurrentStock int       `json:"current_stock"`
}

// NewStockReplenishedEvent creates a new StockReplenishedEvent
func NewStockReplenishedEvent(level *InventoryLevel, quantity int) *StockReplenishedEvent {
	return &StockReplenishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReplenished, AggregateTypeInventoryLevel, level.ID),
		ProductID:       level.ProductID,
		Quantity:        quantity,
		CurrentStock:    level.CurrentStock,
	}
}

// StockConsumedEvent is published when stock is sold or used
type StockConsumedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	CurrentStock int       `json:"current_stock"`
}

// NewStockConsumedEvent creates a new StockConsumedEvent
func NewStockConsumedEvent(level *InventoryLevel, quantity int) *StockConsumedEvent {
	return &StockConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockConsumed, AggregateTypeInventoryLevel, level.ID),
		ProductID:       level.ProductID,
		Quantity:        quantity,
		CurrentStock:    level.CurrentStock,
	}
}

// StockAdjustedEvent is published when stock is corrected after a count
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Reason      string    `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(level *InventoryLevel, oldQuantity, newQuantity int, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeInventoryLevel, level.ID),
		ProductID:       level.ProductID,
		OldQuantity:     oldQuantity,
		NewQuantity:     newQuantity,
		Reason:          reason,
	}
}

// StockBelowMinimumEvent is published when stock crosses below the minimum level
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
}

// NewStockBelowMinimumEvent creates a new StockBelowMinimumEvent
func NewStockBelowMinimumEvent(level *InventoryLevel) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, AggregateTypeInventoryLevel, level.ID),
		ProductID:       level.ProductID,
		CurrentStock:    level.CurrentStock,
		MinStock:        level.MinStock,
	}
}
