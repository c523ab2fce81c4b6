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

// GormAssessmentRepository implements AssessmentRepository using GORM
type GormAssessmentRepository struct {
	db *gorm.DB
}

// NewGormAssessmentRepository creates a new GormAssessmentRepository
func NewGormAssessmentRepository(db *gorm.DB) *GormAssessmentRepository {
	return &GormAssessmentRepository{db: db}
}

// latestPerProduct returns a query selecting the most recent assessment row
// per product using DISTINCT ON.
func (r *GormAssessmentRepository) latestPerProduct(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&risk.Assessment{}).
		Select("DISTINCT ON (product_id) *").
		Order("product_id, created_at DESC")
}

// FindByID finds an assessment by its ID
func (r *GormAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.Assessment, error) {
	var assessment risk.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// FindLatestByProduct finds the most recent assessment for a product
func (r *GormAssessmentRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*risk.Assessment, error) {
	var assessment risk.Assessment
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&assessment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// FindLatest returns the most recent assessment per product, sorted by score descending
func (r *GormAssessmentRepository) FindLatest(ctx context.Context, filter shared.Filter) ([]risk.Assessment, error) {
	query := r.db.WithContext(ctx).
		Table("(?) AS latest", r.latestPerProduct(ctx)).
		Order("score DESC")

	if band, ok := filter.Filters["band"]; ok {
		query = query.Where("band = ?", band)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var assessments []risk.Assessment
	if err := query.Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

// FindHighRisk returns the latest assessments scoring at or above the threshold,
// sorted by score descending
func (r *GormAssessmentRepository) FindHighRisk(ctx context.Context, threshold float64) ([]risk.Assessment, error) {
	var assessments []risk.Assessment
	if err := r.db.WithContext(ctx).
		Table("(?) AS latest", r.latestPerProduct(ctx)).
		Where("score >= ?", threshold).
		Order("score DESC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

// FindByProduct returns the assessment history of a product
func (r *GormAssessmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]risk.Assessment, error) {
	query := r.db.WithContext(ctx).
		Model(&risk.Assessment{}).
		Where("product_id = ?", productID)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AssessmentSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var assessments []risk.Assessment
	if err := query.Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

// Save creates or updates an assessment
func (r *GormAssessmentRepository) Save(ctx context.Context, assessment *risk.Assessment) error {
	return r.db.WithContext(ctx).Save(assessment).Error
}

// SaveBatch creates or updates multiple assessments
func (r *GormAssessmentRepository) SaveBatch(ctx context.Context, assessments []*risk.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(assessments, 500).Error
}

// CountLatestByBand counts the latest assessments per risk band
func (r *GormAssessmentRepository) CountLatestByBand(ctx context.Context) (risk.BandCounts, error) {
	var rows []struct {
		Band  risk.RiskBand
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Table("(?) AS latest", r.latestPerProduct(ctx)).
		Select("band, COUNT(*) AS count").
		Group("band").
		Find(&rows).Error; err != nil {
		return risk.BandCounts{}, err
	}

	var counts risk.BandCounts
	for _, row := range rows {
		switch row.Band {
		case risk.RiskBandLow:
			counts.Low = row.Count
		case risk.RiskBandMedium:
			counts.Medium = row.Count
		case risk.RiskBandHigh:
			counts.High = row.Count
		}
	}
	return counts, nil
}

// CategoryAnalysis aggregates the latest assessments per category
func (r *GormAssessmentRepository) CategoryAnalysis(ctx context.Context) ([]risk.CategoryRisk, error) {
	var rows []risk.CategoryRisk
	if err := r.db.WithContext(ctx).
		Table("(?) AS latest", r.latestPerProduct(ctx)).
		Select(`products.category AS category,
			AVG(latest.score) AS mean_score,
			COUNT(*) FILTER (WHERE latest.high_risk) AS high_risk_count,
			COUNT(*) AS product_count`).
		Joins("JOIN products ON products.id = latest.product_id").
		Group("products.category").
		Order("mean_score DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AverageLatestScore returns the mean of the latest scores across products
func (r *GormAssessmentRepository) AverageLatestScore(ctx context.Context) (float64, error) {
	var avg *float64
	if err := r.db.WithContext(ctx).
		Table("(?) AS latest", r.latestPerProduct(ctx)).
		Select("AVG(score)").
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// DeleteOlderThan removes assessments created before the given time
func (r *GormAssessmentRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&risk.Assessment{})
	return result.RowsAffected, result.Error
}

// Ensure GormAssessmentRepository implements AssessmentRepository
var _ risk.AssessmentRepository = (*GormAssessmentRepository)(nil)
