package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stocksense/backend/internal/domain/shared"
)

const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeProductPriceChanged  = "ProductPriceChanged"
	EventTypeProductDeleted       = "ProductDeleted"
)

func newProductEvent(eventType string, product *Product) shared.BaseDomainEvent {
	return shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, product.ID)
}

// ProductCreatedEvent fires when a new SKU enters the catalog.
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
}

func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: newProductEvent(EventTypeProductCreated, product),
		ProductID:       product.ID,
		Code:            product.Code,
		Name:            product.Name,
		Category:        product.Category,
	}
}

// ProductUpdatedEvent fires when the descriptive fields change.
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
}

func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: newProductEvent(EventTypeProductUpdated, product),
		ProductID:       product.ID,
		Code:            product.Code,
		Name:            product.Name,
		Category:        product.Category,
		Subcategory:     product.Subcategory,
	}
}

// ProductStatusChangedEvent fires on activate, deactivate and discontinue.
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	Code      string        `json:"code"`
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

func NewProductStatusChangedEvent(product *Product, oldStatus, newStatus ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: newProductEvent(EventTypeProductStatusChanged, product),
		ProductID:       product.ID,
		Code:            product.Code,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// ProductPriceChangedEvent carries both the old and new unit price.
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Code      string          `json:"code"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

func NewProductPriceChangedEvent(product *Product, oldPrice decimal.Decimal) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: newProductEvent(EventTypeProductPriceChanged, product),
		ProductID:       product.ID,
		Code:            product.Code,
		OldPrice:        oldPrice,
		NewPrice:        product.Price,
	}
}

// ProductDeletedEvent fires when a SKU is removed from the catalog.
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
}

func NewProductDeletedEvent(product *Product) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: newProductEvent(EventTypeProductDeleted, product),
		ProductID:       product.ID,
		Code:            product.Code,
	}
}
