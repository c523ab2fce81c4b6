package risk

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

// dashboardTopCount limits the riskiest-products list
const dashboardTopCount = 10

// dashboardAlertCount limits the alerts shown on the dashboard
const dashboardAlertCount = 10

// DashboardService assembles the executive risk overview
type DashboardService struct {
	assessmentRepo risk.AssessmentRepository
	alertRepo      risk.AlertRepository
	productRepo    catalog.ProductRepository
	inventoryRepo  inventory.InventoryRepository
	logger         *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	assessmentRepo risk.AssessmentRepository,
	alertRepo risk.AlertRepository,
	productRepo catalog.ProductRepository,
	inventoryRepo inventory.InventoryRepository,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		assessmentRepo: assessmentRepo,
		alertRepo:      alertRepo,
		productRepo:    productRepo,
		inventoryRepo:  inventoryRepo,
		logger:         logger,
	}
}

// Dashboard builds the full dashboard payload from the latest assessments
func (s *DashboardService) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	bands, err := s.assessmentRepo.CountLatestByBand(ctx)
	if err != nil {
		return nil, err
	}
	total := bands.Low + bands.Medium + bands.High

	avgScore := 0.0
	if total > 0 {
		avgScore, err = s.assessmentRepo.AverageLatestScore(ctx)
		if err != nil {
			return nil, err
		}
	}

	riskPercentage := 0.0
	if total > 0 {
		riskPercentage = math.Round(float64(bands.High)/float64(total)*1000) / 10
	}

	top, err := s.assessmentRepo.FindLatest(ctx, shared.Filter{
		Page:     1,
		PageSize: dashboardTopCount,
		OrderBy:  "score",
		OrderDir: "desc",
	})
	if err != nil {
		return nil, err
	}

	categories, err := s.assessmentRepo.CategoryAnalysis(ctx)
	if err != nil {
		return nil, err
	}

	lostSales, err := s.potentialLostSales(ctx)
	if err != nil {
		// A pricing gap should not take the dashboard down
		s.logger.Warn("failed to compute potential lost sales", zap.Error(err))
		lostSales = 0
	}

	alerts, err := s.alertRepo.FindActive(ctx, dashboardAlertCount)
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		Summary: DashboardSummary{
			TotalProducts:    total,
			HighRiskProducts: bands.High,
			RiskPercentage:   riskPercentage,
			AverageScore:     avgScore,
		},
		RiskDistribution: RiskDistribution{
			Low:    bands.Low,
			Medium: bands.Medium,
			High:   bands.High,
		},
		TopRiskProducts:    ToAssessmentResponses(top),
		CategoryAnalysis:   categories,
		PotentialLostSales: lostSales,
		Alerts:             ToAlertResponses(alerts),
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

// potentialLostSales values the stock currently tied up in high-risk products
func (s *DashboardService) potentialLostSales(ctx context.Context) (float64, error) {
	highRisk, err := s.assessmentRepo.FindHighRisk(ctx, risk.BandHighThreshold)
	if err != nil {
		return 0, err
	}
	if len(highRisk) == 0 {
		return 0, nil
	}

	productIDs := make([]uuid.UUID, len(highRisk))
	for i := range highRisk {
		productIDs[i] = highRisk[i].ProductID
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return 0, err
	}
	priceByProduct := make(map[uuid.UUID]float64, len(products))
	for i := range products {
		priceByProduct[products[i].ID] = products[i].Price.InexactFloat64()
	}

	levels, err := s.inventoryRepo.FindByProductIDs(ctx, productIDs)
	if err != nil {
		return 0, err
	}

	lostSales := 0.0
	for i := range levels {
		lostSales += float64(levels[i].CurrentStock) * priceByProduct[levels[i].ProductID]
	}

	return math.Round(lostSales*100) / 100, nil
}
