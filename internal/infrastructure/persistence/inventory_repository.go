package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInventoryRepository implements InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByID finds an inventory level by its ID
func (r *GormInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryLevel, error) {
	var level inventory.InventoryLevel
	if err := r.db.WithContext(ctx).First(&level, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByProductID finds the inventory level for a product
func (r *GormInventoryRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.InventoryLevel, error) {
	var level inventory.InventoryLevel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByProductIDs finds inventory levels for multiple products
func (r *GormInventoryRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]inventory.InventoryLevel, error) {
	if len(productIDs) == 0 {
		return []inventory.InventoryLevel{}, nil
	}

	var levels []inventory.InventoryLevel
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// FindAll finds all inventory levels matching the filter
func (r *GormInventoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryLevel, error) {
	var levels []inventory.InventoryLevel
	query := r.db.WithContext(ctx).Model(&inventory.InventoryLevel{})

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InventorySortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// FindBelowMinimum finds levels at or below their minimum stock
func (r *GormInventoryRepository) FindBelowMinimum(ctx context.Context) ([]inventory.InventoryLevel, error) {
	var levels []inventory.InventoryLevel
	if err := r.db.WithContext(ctx).
		Where("min_stock > 0 AND current_stock <= min_stock").
		Order("current_stock ASC").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// Save creates or updates an inventory level
func (r *GormInventoryRepository) Save(ctx context.Context, level *inventory.InventoryLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// SaveBatch creates or updates multiple inventory levels
func (r *GormInventoryRepository) SaveBatch(ctx context.Context, levels []*inventory.InventoryLevel) error {
	if len(levels) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(levels).Error
}

// Delete deletes an inventory level
func (r *GormInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.InventoryLevel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts inventory levels matching the filter
func (r *GormInventoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.InventoryLevel{})

	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "stocked_out":
			if value == true {
				query = query.Where("current_stock <= 0")
			}
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormInventoryRepository implements InventoryRepository
var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
