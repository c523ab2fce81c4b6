package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormModelVersionRepository implements ModelVersionRepository using GORM
type GormModelVersionRepository struct {
	db *gorm.DB
}

// NewGormModelVersionRepository creates a new GormModelVersionRepository
func NewGormModelVersionRepository(db *gorm.DB) *GormModelVersionRepository {
	return &GormModelVersionRepository{db: db}
}

// FindByID finds a model version by its ID
func (r *GormModelVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.ModelVersion, error) {
	var model risk.ModelVersion
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// FindByVersion finds a model version by its version string
func (r *GormModelVersionRepository) FindByVersion(ctx context.Context, version string) (*risk.ModelVersion, error) {
	var model risk.ModelVersion
	if err := r.db.WithContext(ctx).
		Where("version = ?", version).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// FindActive returns the currently active model version, or ErrNoActiveModel
func (r *GormModelVersionRepository) FindActive(ctx context.Context) (*risk.ModelVersion, error) {
	var model risk.ModelVersion
	if err := r.db.WithContext(ctx).
		Where("status = ?", risk.ModelStatusActive).
		Order("trained_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNoActiveModel
		}
		return nil, err
	}
	return &model, nil
}

// FindAll lists model versions matching the filter
func (r *GormModelVersionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]risk.ModelVersion, error) {
	query := r.db.WithContext(ctx).Model(&risk.ModelVersion{})

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if family, ok := filter.Filters["family"]; ok {
		query = query.Where("family = ?", family)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ModelVersionSortFields, "trained_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var models []risk.ModelVersion
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

// Save creates or updates a model version
func (r *GormModelVersionRepository) Save(ctx context.Context, model *risk.ModelVersion) error {
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts model versions matching the filter
func (r *GormModelVersionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&risk.ModelVersion{})

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormModelVersionRepository implements ModelVersionRepository
var _ risk.ModelVersionRepository = (*GormModelVersionRepository)(nil)
