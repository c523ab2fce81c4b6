package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.Alert, error) {
	var alert risk.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindActive lists unacknowledged alerts, newest first
func (r *GormAlertRepository) FindActive(ctx context.Context, limit int) ([]risk.Alert, error) {
	query := r.db.WithContext(ctx).
		Where("acknowledged = ?", false).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var alerts []risk.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindAll lists alerts matching the filter
func (r *GormAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]risk.Alert, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&risk.Alert{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AlertSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var alerts []risk.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindActiveByProductAndType finds an open alert of a given type for a product
func (r *GormAlertRepository) FindActiveByProductAndType(ctx context.Context, productID uuid.UUID, alertType risk.AlertType) (*risk.Alert, error) {
	var alert risk.Alert
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND acknowledged = ?", productID, alertType, false).
		Order("created_at DESC").
		First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *risk.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// Count counts alerts matching the filter
func (r *GormAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&risk.Alert{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteAcknowledgedOlderThan removes acknowledged alerts older than the given time
func (r *GormAlertRepository) DeleteAcknowledgedOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("acknowledged = ? AND created_at < ?", true, before).
		Delete(&risk.Alert{})
	return result.RowsAffected, result.Error
}

func (r *GormAlertRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "acknowledged":
			query = query.Where("acknowledged = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		}
	}
	return query
}

// Ensure GormAlertRepository implements AlertRepository
var _ risk.AlertRepository = (*GormAlertRepository)(nil)
