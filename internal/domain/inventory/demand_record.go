package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// DemandRecord captures one day of observed demand for a product.
// Records are the raw material for demand statistics and model training.
type DemandRecord struct {
	shared.BaseEntity
	ProductID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_demand_product_date,priority:1"`
	Date            time.Time `gorm:"type:date;not null;uniqueIndex:idx_demand_product_date,priority:2"`
	Quantity        int       `gorm:"not null;default:0"`
	Stockout        bool      `gorm:"not null;default:false"`
	IsWeekend       bool      `gorm:"not null;default:false"`
	IsHolidaySeason bool      `gorm:"not null;default:false"` // November and December
}

// TableName returns the table name for GORM
func (DemandRecord) TableName() string {
	return "demand_records"
}

// NewDemandRecord creates a demand record, deriving the calendar markers from the date
func NewDemandRecord(productID uuid.UUID, date time.Time, quantity int, stockout bool) (*DemandRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Demand quantity cannot be negative")
	}

	weekday := date.Weekday()
	month := date.Month()

	return &DemandRecord{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		Date:            date,
		Quantity:        quantity,
		Stockout:        stockout,
		IsWeekend:       weekday == time.Saturday || weekday == time.Sunday,
		IsHolidaySeason: month == time.November || month == time.December,
	}, nil
}

// DemandStats summarises the demand history of a single product
type DemandStats struct {
	ProductID         uuid.UUID `json:"product_id"`
	Days              int       `json:"days"`
	AvgDailyDemand    float64   `json:"avg_daily_demand"`
	DemandStd         float64   `json:"demand_std"`
	MaxDailyDemand    int       `json:"max_daily_demand"`
	TotalStockouts    int       `json:"total_stockouts"`
	WeekendSalesRatio float64   `json:"weekend_sales_ratio"`
	HolidaySalesRatio float64   `json:"holiday_sales_ratio"`
}

// HasHistory returns true if any demand days were observed
func (s DemandStats) HasHistory() bool {
	return s.Days > 0
}
