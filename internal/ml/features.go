package ml

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultDemandStd is assumed when a product has no demand history
const DefaultDemandStd = 2.0

// demandFloor avoids division blow-ups for products with no recorded demand
const demandFloor = 0.1

// ProductSnapshot carries the raw inputs features are engineered from
type ProductSnapshot struct {
	Price             float64 `json:"price"`
	LeadTimeDays      int     `json:"supplier_lead_time"`
	MinStock          int     `json:"minimum_stock_level"`
	SeasonalFactor    float64 `json:"seasonal_factor"`
	Category          string  `json:"category"`
	Subcategory       string  `json:"subcategory"`
	AvgDailyDemand    float64 `json:"avg_daily_demand"`
	DemandStd         float64 `json:"demand_std"`
	MaxDailyDemand    float64 `json:"max_daily_demand"`
	TotalStockouts    int     `json:"total_stockouts"`
	WeekendSalesRatio float64 `json:"weekend_sales_ratio"`
	HolidaySalesRatio float64 `json:"holiday_sales_ratio"`
	CurrentStock      int     `json:"current_stock"`
	DaysSinceRestock  int     `json:"days_since_restock"`
}

// CoverageDays returns how many days the stock covers at average demand
func (s ProductSnapshot) CoverageDays() float64 {
	demand := s.AvgDailyDemand
	if demand < demandFloor {
		demand = demandFloor
	}
	return float64(s.CurrentStock) / demand
}

// FeatureNames lists the model features in vector order
func FeatureNames() []string {
	return []string{
		"price", "supplier_lead_time", "minimum_stock_level", "seasonal_factor",
		"avg_daily_demand", "demand_std", "max_daily_demand", "total_stockouts",
		"weekend_sales_ratio", "holiday_sales_ratio", "current_stock",
		"days_since_restock", "demand_variability", "stock_coverage_days",
		"category_encoded", "subcategory_encoded", "price_category_encoded",
		"demand_category_encoded", "stockout_rate", "is_fast_moving",
		"lead_time_risk", "is_seasonal", "stock_health_score",
	}
}

// PriceBand buckets a unit price
func PriceBand(price float64) string {
	switch {
	case price <= 20:
		return "Low"
	case price <= 100:
		return "Medium"
	case price <= 500:
		return "High"
	default:
		return "Premium"
	}
}

// DemandBand buckets average daily demand
func DemandBand(avgDaily float64) string {
	switch {
	case avgDaily <= 10:
		return "Low"
	case avgDaily <= 50:
		return "Medium"
	case avgDaily <= 100:
		return "High"
	default:
		return "Very High"
	}
}

// FeatureBuilder turns product snapshots into model feature vectors.
// Fitting learns the categorical vocabularies and the demand median used
// for the fast-mover flag; both are persisted with the model artifact.
type FeatureBuilder struct {
	CategoryEncoder    *LabelEncoder `json:"category_encoder"`
	SubcategoryEncoder *LabelEncoder `json:"subcategory_encoder"`
	PriceBandEncoder   *LabelEncoder `json:"price_band_encoder"`
	DemandBandEncoder  *LabelEncoder `json:"demand_band_encoder"`
	DemandMedian       float64       `json:"demand_median"`
}

// FitFeatures learns encoders and the demand median from training snapshots
func FitFeatures(snapshots []ProductSnapshot) *FeatureBuilder {
	categories := make([]string, len(snapshots))
	subcategories := make([]string, len(snapshots))
	priceBands := make([]string, len(snapshots))
	demandBands := make([]string, len(snapshots))
	demands := make([]float64, len(snapshots))

	for i, s := range snapshots {
		categories[i] = s.Category
		subcategories[i] = s.Subcategory
		priceBands[i] = PriceBand(s.Price)
		demandBands[i] = DemandBand(s.AvgDailyDemand)
		demands[i] = s.AvgDailyDemand
	}

	builder := &FeatureBuilder{
		CategoryEncoder:    NewLabelEncoder(),
		SubcategoryEncoder: NewLabelEncoder(),
		PriceBandEncoder:   NewLabelEncoder(),
		DemandBandEncoder:  NewLabelEncoder(),
	}
	builder.CategoryEncoder.Fit(categories)
	builder.SubcategoryEncoder.Fit(subcategories)
	builder.PriceBandEncoder.Fit(priceBands)
	builder.DemandBandEncoder.Fit(demandBands)

	if len(demands) > 0 {
		sorted := append([]float64(nil), demands...)
		sort.Float64s(sorted)
		builder.DemandMedian = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}

	return builder
}

// Vector engineers the feature vector for one snapshot
func (b *FeatureBuilder) Vector(s ProductSnapshot) []float64 {
	variability := 0.0
	if s.AvgDailyDemand > 0 {
		variability = s.DemandStd / s.AvgDailyDemand
	}

	coverage := s.CoverageDays()
	stockoutRate := float64(s.TotalStockouts) / 365.0
	healthScore := coverage / float64(maxInt(s.LeadTimeDays, 1))

	return []float64{
		s.Price,
		float64(s.LeadTimeDays),
		float64(s.MinStock),
		s.SeasonalFactor,
		s.AvgDailyDemand,
		s.DemandStd,
		s.MaxDailyDemand,
		float64(s.TotalStockouts),
		s.WeekendSalesRatio,
		s.HolidaySalesRatio,
		float64(s.CurrentStock),
		float64(s.DaysSinceRestock),
		variability,
		coverage,
		float64(b.CategoryEncoder.Transform(s.Category)),
		float64(b.SubcategoryEncoder.Transform(s.Subcategory)),
		float64(b.PriceBandEncoder.Transform(PriceBand(s.Price))),
		float64(b.DemandBandEncoder.Transform(DemandBand(s.AvgDailyDemand))),
		stockoutRate,
		boolFeature(s.AvgDailyDemand > b.DemandMedian),
		boolFeature(s.LeadTimeDays > 7),
		boolFeature(s.SeasonalFactor > 1.5),
		healthScore,
	}
}

// Matrix engineers feature vectors for a batch of snapshots
func (b *FeatureBuilder) Matrix(snapshots []ProductSnapshot) [][]float64 {
	rows := make([][]float64, len(snapshots))
	for i, s := range snapshots {
		rows[i] = b.Vector(s)
	}
	return rows
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
