package risk

import (
	"encoding/json"
	"time"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/ml"
)

// Defaults assumed when a product has no demand history yet
const (
	defaultAvgDailyDemand = 10.0
	defaultDemandStd      = 2.0
	defaultSalesRatio     = 0.5
)

// Ad-hoc scoring defaults for fields the caller omitted
const (
	defaultLeadTimeDays   = 7
	defaultMinStock       = 10
	defaultPrice          = 50.0
	defaultCategory       = "General"
	defaultSeasonalFactor = 1.0
)

// buildSnapshot assembles the feature inputs for a stored product. Products
// without demand history score on neutral defaults rather than zeros, which
// would read as dead stock.
func buildSnapshot(product *catalog.Product, level *inventory.InventoryLevel, stats *inventory.DemandStats, now time.Time) ml.ProductSnapshot {
	snapshot := ml.ProductSnapshot{
		Price:             product.Price.InexactFloat64(),
		LeadTimeDays:      product.LeadTimeDays,
		MinStock:          product.MinStock,
		SeasonalFactor:    product.SeasonalFactor,
		Category:          product.Category,
		Subcategory:       product.Subcategory,
		AvgDailyDemand:    defaultAvgDailyDemand,
		DemandStd:         defaultDemandStd,
		MaxDailyDemand:    defaultAvgDailyDemand * 2,
		WeekendSalesRatio: defaultSalesRatio,
		HolidaySalesRatio: defaultSalesRatio,
	}

	if level != nil {
		snapshot.CurrentStock = level.CurrentStock
		snapshot.DaysSinceRestock = level.DaysSinceRestock(now)
	}

	if stats != nil && stats.HasHistory() {
		snapshot.AvgDailyDemand = stats.AvgDailyDemand
		snapshot.DemandStd = stats.DemandStd
		snapshot.MaxDailyDemand = float64(stats.MaxDailyDemand)
		snapshot.TotalStockouts = stats.TotalStockouts
		snapshot.WeekendSalesRatio = stats.WeekendSalesRatio
		snapshot.HolidaySalesRatio = stats.HolidaySalesRatio
	}

	return snapshot
}

// buildAdhocSnapshot assembles feature inputs from an ad-hoc request,
// substituting defaults for omitted fields
func buildAdhocSnapshot(req AdhocAssessRequest) ml.ProductSnapshot {
	avgDemand := defaultAvgDailyDemand
	if req.AvgDailyDemand != nil {
		avgDemand = *req.AvgDailyDemand
	}

	snapshot := ml.ProductSnapshot{
		Price:             defaultPrice,
		LeadTimeDays:      defaultLeadTimeDays,
		MinStock:          defaultMinStock,
		SeasonalFactor:    defaultSeasonalFactor,
		Category:          defaultCategory,
		Subcategory:       req.Subcategory,
		AvgDailyDemand:    avgDemand,
		DemandStd:         defaultDemandStd,
		MaxDailyDemand:    avgDemand * 2,
		TotalStockouts:    req.TotalStockouts,
		WeekendSalesRatio: defaultSalesRatio,
		HolidaySalesRatio: defaultSalesRatio,
		CurrentStock:      req.CurrentStock,
		DaysSinceRestock:  req.DaysSinceRestock,
	}

	if req.Category != "" {
		snapshot.Category = req.Category
	}
	if req.LeadTimeDays != nil {
		snapshot.LeadTimeDays = *req.LeadTimeDays
	}
	if req.MinStock != nil {
		snapshot.MinStock = *req.MinStock
	}
	if req.Price != nil {
		snapshot.Price = *req.Price
	}
	if req.SeasonalFactor != nil {
		snapshot.SeasonalFactor = *req.SeasonalFactor
	}
	if req.DemandStd != nil {
		snapshot.DemandStd = *req.DemandStd
	}
	if req.MaxDailyDemand != nil {
		snapshot.MaxDailyDemand = *req.MaxDailyDemand
	}
	if req.WeekendSalesRatio != nil {
		snapshot.WeekendSalesRatio = *req.WeekendSalesRatio
	}
	if req.HolidaySalesRatio != nil {
		snapshot.HolidaySalesRatio = *req.HolidaySalesRatio
	}

	return snapshot
}

// heuristicScore is the fallback rule used when no trained model is active:
// risk rises as coverage drops below twice the lead time
func heuristicScore(snapshot ml.ProductSnapshot) float64 {
	leadTime := float64(snapshot.LeadTimeDays)
	if leadTime < 1 {
		leadTime = 1
	}
	score := 1 - snapshot.CoverageDays()/(leadTime*2)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func encodeSnapshot(snapshot ml.ProductSnapshot) string {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func encodeRecommendations(recommendations []string) string {
	if len(recommendations) == 0 {
		return "[]"
	}
	data, err := json.Marshal(recommendations)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeRecommendations(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var recommendations []string
	if err := json.Unmarshal([]byte(raw), &recommendations); err != nil {
		return []string{}
	}
	return recommendations
}
