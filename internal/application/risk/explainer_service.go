package risk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"github.com/stocksense/backend/internal/infrastructure/ai"
)

// Narrative sources
const (
	NarrativeSourceDeterministic = "deterministic"
	NarrativeSourceLLM           = "llm"
)

// explainerSystemPrompt frames the LLM narrative request
const explainerSystemPrompt = "You are an AI assistant specializing in inventory management and supply chain optimization. " +
	"You help analyze stockout risks and provide actionable recommendations for inventory managers. " +
	"Always be specific, data-driven, and focus on business impact."

// Factor thresholds
const (
	highVariabilityThreshold = 0.5
	longLeadTimeDays         = 14
)

// ExplainerService explains risk assessments in terms an inventory manager
// can act on. An optional chat client upgrades the narrative; the
// deterministic text always works.
type ExplainerService struct {
	assessmentRepo risk.AssessmentRepository
	productRepo    catalog.ProductRepository
	inventoryRepo  inventory.InventoryRepository
	demandRepo     inventory.DemandRepository
	chat           ai.ChatClient
	logger         *zap.Logger
}

// NewExplainerService creates a new ExplainerService. The chat client may be nil.
func NewExplainerService(
	assessmentRepo risk.AssessmentRepository,
	productRepo catalog.ProductRepository,
	inventoryRepo inventory.InventoryRepository,
	demandRepo inventory.DemandRepository,
	chat ai.ChatClient,
	logger *zap.Logger,
) *ExplainerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplainerService{
		assessmentRepo: assessmentRepo,
		productRepo:    productRepo,
		inventoryRepo:  inventoryRepo,
		demandRepo:     demandRepo,
		chat:           chat,
		logger:         logger,
	}
}

// Explain builds the explanation for a product's latest assessment
func (s *ExplainerService) Explain(ctx context.Context, productID uuid.UUID) (*ExplanationResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	assessment, err := s.assessmentRepo.FindLatestByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	level, err := s.inventoryRepo.FindByProductID(ctx, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	stats, err := s.demandRepo.StatsByProduct(ctx, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	position := explainPosition(product, level, stats)
	factors := keyFactors(position)
	narrative := deterministicNarrative(assessment.Score, position)
	source := NarrativeSourceDeterministic

	if s.chat != nil {
		if llmNarrative, err := s.llmNarrative(ctx, product, assessment, position, factors); err != nil {
			if !errors.Is(err, ai.ErrNotConfigured) {
				s.logger.Warn("LLM narrative failed, using deterministic text",
					zap.String("product_code", product.Code),
					zap.Error(err),
				)
			}
		} else {
			narrative = llmNarrative
			source = NarrativeSourceLLM
		}
	}

	return &ExplanationResponse{
		ProductID:   product.ID,
		ProductCode: product.Code,
		Score:       assessment.Score,
		Band:        string(assessment.Band),
		KeyFactors:  factors,
		Narrative:   narrative,
		Suggestions: suggestions(assessment.Score, position),
		Source:      source,
	}, nil
}

// explainerPosition carries the numbers factors and narratives derive from
type explainerPosition struct {
	CurrentStock int
	MinStock     int
	LeadTimeDays int
	AvgDemand    float64
	DemandStd    float64
	StockDays    float64
}

func explainPosition(product *catalog.Product, level *inventory.InventoryLevel, stats *inventory.DemandStats) explainerPosition {
	position := explainerPosition{
		MinStock:     product.MinStock,
		LeadTimeDays: product.LeadTimeDays,
		AvgDemand:    defaultAvgDailyDemand,
		DemandStd:    defaultDemandStd,
	}
	if level != nil {
		position.CurrentStock = level.CurrentStock
	}
	if stats != nil && stats.HasHistory() {
		position.AvgDemand = stats.AvgDailyDemand
		position.DemandStd = stats.DemandStd
	}

	demand := position.AvgDemand
	if demand < 1 {
		demand = 1
	}
	position.StockDays = float64(position.CurrentStock) / demand

	return position
}

// keyFactors identifies what drives the risk for this product
func keyFactors(p explainerPosition) []KeyFactor {
	factors := make([]KeyFactor, 0, 4)

	coverage := KeyFactor{
		Factor: "Stock Coverage",
		Value:  fmt.Sprintf("%.1f days", p.StockDays),
	}
	switch {
	case p.StockDays < float64(p.LeadTimeDays):
		coverage.Status = "Critical"
		coverage.Impact = "High"
		coverage.Explanation = fmt.Sprintf("Current stock will last %.1f days, but supplier lead time is %d days", p.StockDays, p.LeadTimeDays)
	case p.StockDays < float64(p.LeadTimeDays)*2:
		coverage.Status = "Warning"
		coverage.Impact = "Medium"
		coverage.Explanation = "Stock coverage is below recommended safety level (2x lead time)"
	default:
		coverage.Status = "Good"
		coverage.Impact = "Low"
		coverage.Explanation = "Stock coverage is adequate"
	}
	factors = append(factors, coverage)

	if p.MinStock > 0 && p.CurrentStock < p.MinStock {
		factors = append(factors, KeyFactor{
			Factor:      "Minimum Stock Level",
			Value:       fmt.Sprintf("%d/%d", p.CurrentStock, p.MinStock),
			Status:      "Critical",
			Impact:      "High",
			Explanation: fmt.Sprintf("Current stock (%d) is below minimum level (%d)", p.CurrentStock, p.MinStock),
		})
	}

	demand := p.AvgDemand
	if demand < 1 {
		demand = 1
	}
	if variability := p.DemandStd / demand; variability > highVariabilityThreshold {
		factors = append(factors, KeyFactor{
			Factor:      "Demand Variability",
			Value:       fmt.Sprintf("%.1f%%", variability*100),
			Status:      "Warning",
			Impact:      "Medium",
			Explanation: "High demand variability increases stockout risk",
		})
	}

	if p.LeadTimeDays > longLeadTimeDays {
		factors = append(factors, KeyFactor{
			Factor:      "Supplier Lead Time",
			Value:       fmt.Sprintf("%d days", p.LeadTimeDays),
			Status:      "Warning",
			Impact:      "Medium",
			Explanation: "Long lead time increases planning complexity",
		})
	}

	return factors
}

// deterministicNarrative writes the fallback explanation text
func deterministicNarrative(score float64, p explainerPosition) string {
	switch {
	case score > risk.BandHighThreshold:
		return fmt.Sprintf(
			"HIGH RISK: This product has a %.0f%% chance of stockout. "+
				"With only %d units in stock and daily demand of %.1f, "+
				"the current inventory will last approximately %.1f days. "+
				"Given the supplier lead time of %d days, immediate action is required.",
			score*100, p.CurrentStock, p.AvgDemand, p.StockDays, p.LeadTimeDays)
	case score > 0.4:
		return fmt.Sprintf(
			"MEDIUM RISK: This product has a %.0f%% chance of stockout. "+
				"Current stock of %d units provides %.1f days of coverage. "+
				"Consider reordering soon to maintain adequate inventory levels.",
			score*100, p.CurrentStock, p.StockDays)
	default:
		return fmt.Sprintf(
			"LOW RISK: This product has a %.0f%% chance of stockout. "+
				"Current stock levels appear adequate with %.1f days of coverage. "+
				"Continue monitoring for any changes in demand patterns.",
			score*100, p.StockDays)
	}
}

// suggestions lists concrete improvements ordered by urgency
func suggestions(score float64, p explainerPosition) []string {
	out := make([]string, 0, 8)

	if score > risk.BandHighThreshold {
		out = append(out,
			"Contact supplier immediately for emergency delivery",
			"Review alternative suppliers for faster delivery",
			"Implement daily stock monitoring for this product")
	}

	safetyStock := p.AvgDemand * float64(p.LeadTimeDays) * 1.5
	if float64(p.CurrentStock) < safetyStock {
		// One week of demand on top of the safety stock gap
		reorderQty := int(safetyStock - float64(p.CurrentStock) + p.AvgDemand*7)
		out = append(out, fmt.Sprintf("Increase order quantity to %d units", reorderQty))
	}

	if p.StockDays < float64(p.LeadTimeDays)*2 {
		reorderPoint := int(p.AvgDemand * float64(p.LeadTimeDays) * 2)
		out = append(out, fmt.Sprintf("Set reorder point to %d units (2x lead time demand)", reorderPoint))
	}

	if p.LeadTimeDays > 10 {
		out = append(out,
			"Negotiate shorter lead times with supplier",
			"Consider local suppliers to reduce lead time")
	}

	demand := p.AvgDemand
	if demand < 1 {
		demand = 1
	}
	if p.DemandStd/demand > 0.4 {
		out = append(out,
			"Implement demand forecasting to better predict variations",
			"Analyze demand patterns to identify trends")
	}

	out = append(out,
		"Set up automated reorder alerts",
		"Implement real-time inventory tracking")

	return out
}

// llmNarrative asks the chat client to write the narrative from the assessment facts
func (s *ExplainerService) llmNarrative(ctx context.Context, product *catalog.Product, assessment *risk.Assessment, p explainerPosition, factors []KeyFactor) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain the stockout risk for product %s (%s, category %s) in 3-4 sentences.\n", product.Code, product.Name, product.Category)
	fmt.Fprintf(&b, "Risk score: %.2f (%s band).\n", assessment.Score, assessment.Band)
	fmt.Fprintf(&b, "Current stock: %d units, minimum level: %d units.\n", p.CurrentStock, p.MinStock)
	fmt.Fprintf(&b, "Average daily demand: %.1f units (std dev %.1f), stock covers %.1f days.\n", p.AvgDemand, p.DemandStd, p.StockDays)
	fmt.Fprintf(&b, "Supplier lead time: %d days.\n", p.LeadTimeDays)
	if len(factors) > 0 {
		b.WriteString("Key factors:\n")
		for _, factor := range factors {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", factor.Factor, factor.Value, factor.Status)
		}
	}

	return s.chat.Complete(ctx, explainerSystemPrompt, b.String())
}
