package risk

import "fmt"

// StockPosition carries the numbers recommendations are derived from
type StockPosition struct {
	CurrentStock   int
	AvgDailyDemand float64
	LeadTimeDays   int
	MinStock       int
}

// StockDays returns how many days the current stock lasts at average demand
func (p StockPosition) StockDays() float64 {
	demand := p.AvgDailyDemand
	if demand < 1 {
		demand = 1
	}
	return float64(p.CurrentStock) / demand
}

// SafetyStock is sized at 150% of the demand expected during one lead time
func (p StockPosition) SafetyStock() float64 {
	return p.AvgDailyDemand * float64(p.LeadTimeDays) * 1.5
}

// ReorderQuantity returns the suggested order size to reach safety stock
func (p StockPosition) ReorderQuantity() int {
	qty := p.SafetyStock() - float64(p.CurrentStock)
	if qty < 0 {
		return 0
	}
	return int(qty)
}

// BuildRecommendations derives actionable recommendations from a risk score
// and the product's stock position
func BuildRecommendations(position StockPosition, score float64) []string {
	recommendations := make([]string, 0, 6)
	stockDays := position.StockDays()

	switch {
	case score > BandHighThreshold:
		recommendations = append(recommendations,
			"URGENT: Place emergency order immediately",
			fmt.Sprintf("Current stock will last only %.1f days", stockDays))
	case score > HighRiskCutoff:
		recommendations = append(recommendations,
			"Schedule reorder within 24 hours",
			fmt.Sprintf("Stock coverage: %.1f days", stockDays))
	}

	if position.CurrentStock < position.MinStock {
		recommendations = append(recommendations,
			fmt.Sprintf("Below minimum stock level (%d units)", position.MinStock))
	}

	if stockDays < float64(position.LeadTimeDays) {
		recommendations = append(recommendations,
			fmt.Sprintf("Stock will run out before next delivery (%d days)", position.LeadTimeDays))
	}

	if score < BandMediumThreshold {
		recommendations = append(recommendations,
			"Inventory levels are healthy",
			fmt.Sprintf("Current stock covers %.1f days of demand", stockDays))
	}

	if qty := position.ReorderQuantity(); qty > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Suggested reorder quantity: %d units", qty))
	}

	return recommendations
}
