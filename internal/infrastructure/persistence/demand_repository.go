package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDemandRepository implements DemandRepository using GORM
type GormDemandRepository struct {
	db *gorm.DB
}

// NewGormDemandRepository creates a new GormDemandRepository
func NewGormDemandRepository(db *gorm.DB) *GormDemandRepository {
	return &GormDemandRepository{db: db}
}

// demandStatsRow is the scan target for the aggregation queries
type demandStatsRow struct {
	ProductID         uuid.UUID
	Days              int
	AvgDailyDemand    float64
	DemandStd         float64
	MaxDailyDemand    int
	TotalStockouts    int
	WeekendSalesRatio float64
	HolidaySalesRatio float64
}

func (row demandStatsRow) toStats() inventory.DemandStats {
	return inventory.DemandStats{
		ProductID:         row.ProductID,
		Days:              row.Days,
		AvgDailyDemand:    row.AvgDailyDemand,
		DemandStd:         row.DemandStd,
		MaxDailyDemand:    row.MaxDailyDemand,
		TotalStockouts:    row.TotalStockouts,
		WeekendSalesRatio: row.WeekendSalesRatio,
		HolidaySalesRatio: row.HolidaySalesRatio,
	}
}

// Sample standard deviation matches how the demand history is analysed offline.
// NULLIF guards the ratio denominators against products with zero total sales.
const demandStatsSelect = `
	product_id,
	COUNT(*) AS days,
	AVG(quantity) AS avg_daily_demand,
	COALESCE(STDDEV_SAMP(quantity), 0) AS demand_std,
	MAX(quantity) AS max_daily_demand,
	COUNT(*) FILTER (WHERE stockout) AS total_stockouts,
	COALESCE(SUM(quantity) FILTER (WHERE is_weekend)::float / NULLIF(SUM(quantity), 0), 0) AS weekend_sales_ratio,
	COALESCE(SUM(quantity) FILTER (WHERE is_holiday_season)::float / NULLIF(SUM(quantity), 0), 0) AS holiday_sales_ratio`

// Save persists a single demand record, updating quantity and flags on conflict
func (r *GormDemandRepository) Save(ctx context.Context, record *inventory.DemandRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "stockout", "is_weekend", "is_holiday_season", "updated_at"}),
		}).
		Create(record).Error
}

// SaveBatch persists multiple demand records in chunks
func (r *GormDemandRepository) SaveBatch(ctx context.Context, records []*inventory.DemandRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "stockout", "is_weekend", "is_holiday_season", "updated_at"}),
		}).
		CreateInBatches(records, 500).Error
}

// FindByProduct finds demand records for a product within a date range
func (r *GormDemandRepository) FindByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]inventory.DemandRecord, error) {
	var records []inventory.DemandRecord
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND date >= ? AND date <= ?", productID, from, to).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// StatsByProduct computes demand statistics for a single product
func (r *GormDemandRepository) StatsByProduct(ctx context.Context, productID uuid.UUID) (*inventory.DemandStats, error) {
	var row demandStatsRow
	err := r.db.WithContext(ctx).
		Model(&inventory.DemandRecord{}).
		Select(demandStatsSelect).
		Where("product_id = ?", productID).
		Group("product_id").
		Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// No history yet: return empty stats rather than an error
			return &inventory.DemandStats{ProductID: productID}, nil
		}
		return nil, err
	}
	stats := row.toStats()
	return &stats, nil
}

// StatsAll computes demand statistics for every product with history
func (r *GormDemandRepository) StatsAll(ctx context.Context) (map[uuid.UUID]inventory.DemandStats, error) {
	var rows []demandStatsRow
	if err := r.db.WithContext(ctx).
		Model(&inventory.DemandRecord{}).
		Select(demandStatsSelect).
		Group("product_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := make(map[uuid.UUID]inventory.DemandStats, len(rows))
	for _, row := range rows {
		stats[row.ProductID] = row.toStats()
	}
	return stats, nil
}

// CountByProduct counts the demand records of a product
func (r *GormDemandRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.DemandRecord{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOlderThan removes records older than the given date
func (r *GormDemandRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("date < ?", before).
		Delete(&inventory.DemandRecord{})
	return result.RowsAffected, result.Error
}

// Ensure GormDemandRepository implements DemandRepository
var _ inventory.DemandRepository = (*GormDemandRepository)(nil)
