package event

import (
	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Catalog domain events
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductStatusChanged, &catalog.ProductStatusChangedEvent{})
	serializer.Register(catalog.EventTypeProductPriceChanged, &catalog.ProductPriceChangedEvent{})
	serializer.Register(catalog.EventTypeProductDeleted, &catalog.ProductDeletedEvent{})

	// Inventory domain events
	serializer.Register(inventory.EventTypeStockReplenished, &inventory.StockReplenishedEvent{})
	serializer.Register(inventory.EventTypeStockConsumed, &inventory.StockConsumedEvent{})
	serializer.Register(inventory.EventTypeStockAdjusted, &inventory.StockAdjustedEvent{})
	serializer.Register(inventory.EventTypeStockBelowMinimum, &inventory.StockBelowMinimumEvent{})

	// Risk domain events
	serializer.Register(risk.EventTypeHighRiskDetected, &risk.HighRiskDetectedEvent{})
	serializer.Register(risk.EventTypeModelActivated, &risk.ModelActivatedEvent{})
}
