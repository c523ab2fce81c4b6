package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/inventory"
)

// CreateInventoryLevelRequest represents a request to start tracking stock for a product
type CreateInventoryLevelRequest struct {
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	CurrentStock int       `json:"current_stock" binding:"min=0"`
	MinStock     int       `json:"min_stock" binding:"min=0"`
	ReorderPoint int       `json:"reorder_point" binding:"min=0"`
}

// RestockRequest represents a replenishment delivery
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// ConsumeRequest represents a stock deduction
type ConsumeRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AdjustRequest represents a stocktake correction
type AdjustRequest struct {
	CountedQuantity int    `json:"counted_quantity" binding:"min=0"`
	Reason          string `json:"reason" binding:"required,min=1,max=200"`
}

// UpdateThresholdsRequest changes the minimum stock and reorder point for a product.
// Omitted fields are left unchanged.
type UpdateThresholdsRequest struct {
	MinStock     *int `json:"min_stock" binding:"omitempty,min=0"`
	ReorderPoint *int `json:"reorder_point" binding:"omitempty,min=0"`
}

// RecordDemandRequest represents one day of observed demand for a product
type RecordDemandRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0"`
	Stockout  bool      `json:"stockout"`
}

// InventoryLevelResponse represents an inventory level in API responses
type InventoryLevelResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"product_id"`
	CurrentStock  int        `json:"current_stock"`
	MinStock      int        `json:"min_stock"`
	ReorderPoint  int        `json:"reorder_point"`
	BelowMinimum  bool       `json:"below_minimum"`
	StockedOut    bool       `json:"stocked_out"`
	LastRestockAt *time.Time `json:"last_restock_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
}

// DemandRecordResponse represents a demand record in API responses
type DemandRecordResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Date            time.Time `json:"date"`
	Quantity        int       `json:"quantity"`
	Stockout        bool      `json:"stockout"`
	IsWeekend       bool      `json:"is_weekend"`
	IsHolidaySeason bool      `json:"is_holiday_season"`
}

// DemandStatsResponse represents aggregated demand statistics
type DemandStatsResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	Days              int       `json:"days"`
	AvgDailyDemand    float64   `json:"avg_daily_demand"`
	DemandStd         float64   `json:"demand_std"`
	MaxDailyDemand    int       `json:"max_daily_demand"`
	TotalStockouts    int       `json:"total_stockouts"`
	WeekendSalesRatio float64   `json:"weekend_sales_ratio"`
	HolidaySalesRatio float64   `json:"holiday_sales_ratio"`
}

// InventoryListFilter represents filter options for inventory list
type InventoryListFilter struct {
	BelowMinimum *bool  `form:"below_minimum"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToInventoryLevelResponse converts a domain InventoryLevel
func ToInventoryLevelResponse(l *inventory.InventoryLevel) InventoryLevelResponse {
	return InventoryLevelResponse{
		ID:            l.ID,
		ProductID:     l.ProductID,
		CurrentStock:  l.CurrentStock,
		MinStock:      l.MinStock,
		ReorderPoint:  l.ReorderPoint,
		BelowMinimum:  l.IsBelowMinimum(),
		StockedOut:    l.IsStockedOut(),
		LastRestockAt: l.LastRestockAt,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		Version:       l.Version,
	}
}

// ToInventoryLevelResponses converts a slice of domain InventoryLevels
func ToInventoryLevelResponses(levels []inventory.InventoryLevel) []InventoryLevelResponse {
	responses := make([]InventoryLevelResponse, len(levels))
	for i := range levels {
		responses[i] = ToInventoryLevelResponse(&levels[i])
	}
	return responses
}

// ToDemandRecordResponse converts a domain DemandRecord
func ToDemandRecordResponse(r *inventory.DemandRecord) DemandRecordResponse {
	return DemandRecordResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		Date:            r.Date,
		Quantity:        r.Quantity,
		Stockout:        r.Stockout,
		IsWeekend:       r.IsWeekend,
		IsHolidaySeason: r.IsHolidaySeason,
	}
}

// ToDemandStatsResponse converts domain DemandStats
func ToDemandStatsResponse(s inventory.DemandStats) DemandStatsResponse {
	return DemandStatsResponse{
		ProductID:         s.ProductID,
		Days:              s.Days,
		AvgDailyDemand:    s.AvgDailyDemand,
		DemandStd:         s.DemandStd,
		MaxDailyDemand:    s.MaxDailyDemand,
		TotalStockouts:    s.TotalStockouts,
		WeekendSalesRatio: s.WeekendSalesRatio,
		HolidaySalesRatio: s.HolidaySalesRatio,
	}
}
