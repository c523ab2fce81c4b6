package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/shared"
)

// InventoryService handles stock level operations
type InventoryService struct {
	inventoryRepo  inventory.InventoryRepository
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	inventoryRepo inventory.InventoryRepository,
	productRepo catalog.ProductRepository,
) *InventoryService {
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create starts tracking stock for a product
func (s *InventoryService) Create(ctx context.Context, req CreateInventoryLevelRequest) (*InventoryLevelResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product not found")
		}
		return nil, err
	}

	existing, err := s.inventoryRepo.FindByProductID(ctx, req.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Inventory level already tracked for this product")
	}

	minStock := req.MinStock
	if minStock == 0 {
		minStock = product.MinStock
	}

	level, err := inventory.NewInventoryLevel(req.ProductID, req.CurrentStock, minStock, req.ReorderPoint)
	if err != nil {
		return nil, err
	}

	if err := s.inventoryRepo.Save(ctx, level); err != nil {
		return nil, err
	}

	response := ToInventoryLevelResponse(level)
	return &response, nil
}

// GetByProductID retrieves the inventory level of a product
func (s *InventoryService) GetByProductID(ctx context.Context, productID uuid.UUID) (*InventoryLevelResponse, error) {
	level, err := s.inventoryRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := ToInventoryLevelResponse(level)
	return &response, nil
}

// List retrieves inventory levels with filtering and pagination
func (s *InventoryService) List(ctx context.Context, filter InventoryListFilter) ([]InventoryLevelResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "updated_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.BelowMinimum != nil {
		domainFilter.Filters["below_minimum"] = *filter.BelowMinimum
	}

	levels, err := s.inventoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.inventoryRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInventoryLevelResponses(levels), total, nil
}

// ListBelowMinimum retrieves every level at or below its minimum stock
func (s *InventoryService) ListBelowMinimum(ctx context.Context) ([]InventoryLevelResponse, error) {
	levels, err := s.inventoryRepo.FindBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	return ToInventoryLevelResponses(levels), nil
}

// Restock records a replenishment delivery for a product
func (s *InventoryService) Restock(ctx context.Context, productID uuid.UUID, req RestockRequest) (*InventoryLevelResponse, error) {
	return s.mutate(ctx, productID, func(level *inventory.InventoryLevel) error {
		return level.Restock(req.Quantity)
	})
}

// Consume deducts sold or used stock for a product
func (s *InventoryService) Consume(ctx context.Context, productID uuid.UUID, req ConsumeRequest) (*InventoryLevelResponse, error) {
	return s.mutate(ctx, productID, func(level *inventory.InventoryLevel) error {
		return level.Consume(req.Quantity)
	})
}

// Adjust corrects the stock level to a counted quantity
func (s *InventoryService) Adjust(ctx context.Context, productID uuid.UUID, req AdjustRequest) (*InventoryLevelResponse, error) {
	return s.mutate(ctx, productID, func(level *inventory.InventoryLevel) error {
		return level.Adjust(req.CountedQuantity, req.Reason)
	})
}

// UpdateThresholds changes the minimum stock and reorder point
func (s *InventoryService) UpdateThresholds(ctx context.Context, productID uuid.UUID, req UpdateThresholdsRequest) (*InventoryLevelResponse, error) {
	if req.MinStock == nil && req.ReorderPoint == nil {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "At least one threshold must be provided")
	}
	return s.mutate(ctx, productID, func(level *inventory.InventoryLevel) error {
		if req.MinStock != nil {
			if err := level.SetMinStock(*req.MinStock); err != nil {
				return err
			}
		}
		if req.ReorderPoint != nil {
			if err := level.SetReorderPoint(*req.ReorderPoint); err != nil {
				return err
			}
		}
		return nil
	})
}

// mutate loads the product's level, applies the change, and persists it
func (s *InventoryService) mutate(ctx context.Context, productID uuid.UUID, change func(*inventory.InventoryLevel) error) (*InventoryLevelResponse, error) {
	level, err := s.inventoryRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := change(level); err != nil {
		return nil, err
	}

	if err := s.inventoryRepo.Save(ctx, level); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, level)

	response := ToInventoryLevelResponse(level)
	return &response, nil
}

// publishDomainEvents publishes all domain events raised by the level
func (s *InventoryService) publishDomainEvents(ctx context.Context, level *inventory.InventoryLevel) {
	if s.eventPublisher == nil {
		return
	}
	events := level.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	level.ClearDomainEvents()
}
