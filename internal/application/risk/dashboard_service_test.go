package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

func newDashboardService(
	assessmentRepo *MockAssessmentRepository,
	alertRepo *MockAlertRepository,
	productRepo *MockProductRepository,
	inventoryRepo *MockInventoryRepository,
) *DashboardService {
	return NewDashboardService(assessmentRepo, alertRepo, productRepo, inventoryRepo, nil)
}

func TestDashboardService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("assembles the full overview", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		alertRepo := new(MockAlertRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)

		service := newDashboardService(assessmentRepo, alertRepo, productRepo, inventoryRepo)

		product := newTestProduct(t, "RISKY-001")
		assessment, err := risk.NewAssessment(product.ID, product.Code, 0.9, risk.HeuristicModelVersion, "", "")
		require.NoError(t, err)
		level := newTestLevel(t, product.ID, 10)

		alert, err := risk.NewAlert(risk.AlertTypeCriticalRisk, product.ID, product.Code, "Critical stockout risk: 90.0%", risk.AlertPriorityHigh)
		require.NoError(t, err)

		assessmentRepo.On("CountLatestByBand", ctx).Return(risk.BandCounts{Low: 5, Medium: 3, High: 2}, nil)
		assessmentRepo.On("AverageLatestScore", ctx).Return(0.42, nil)
		assessmentRepo.On("FindLatest", ctx, mock.MatchedBy(func(f shared.Filter) bool {
			return f.PageSize == 10 && f.OrderBy == "score" && f.OrderDir == "desc"
		})).Return([]risk.Assessment{*assessment}, nil)
		assessmentRepo.On("CategoryAnalysis", ctx).Return([]risk.CategoryRisk{
			{Category: "Electronics", MeanScore: 0.6, HighRiskCount: 2, ProductCount: 4},
		}, nil)
		assessmentRepo.On("FindHighRisk", ctx, risk.BandHighThreshold).Return([]risk.Assessment{*assessment}, nil)
		productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*product}, nil)
		inventoryRepo.On("FindByProductIDs", ctx, mock.Anything).Return([]inventory.InventoryLevel{*level}, nil)
		alertRepo.On("FindActive", ctx, 10).Return([]risk.Alert{*alert}, nil)

		resp, err := service.Dashboard(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(10), resp.Summary.TotalProducts)
		assert.Equal(t, int64(2), resp.Summary.HighRiskProducts)
		assert.Equal(t, 20.0, resp.Summary.RiskPercentage)
		assert.Equal(t, 0.42, resp.Summary.AverageScore)
		assert.Equal(t, int64(5), resp.RiskDistribution.Low)
		require.Len(t, resp.TopRiskProducts, 1)
		assert.Equal(t, "RISKY-001", resp.TopRiskProducts[0].ProductCode)
		require.Len(t, resp.CategoryAnalysis, 1)
		// 10 units at 50 each tied up in high-risk stock
		assert.Equal(t, 500.0, resp.PotentialLostSales)
		require.Len(t, resp.Alerts, 1)
		assert.False(t, resp.GeneratedAt.IsZero())
	})

	t.Run("handles an empty assessment table", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		alertRepo := new(MockAlertRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)

		service := newDashboardService(assessmentRepo, alertRepo, productRepo, inventoryRepo)

		assessmentRepo.On("CountLatestByBand", ctx).Return(risk.BandCounts{}, nil)
		assessmentRepo.On("FindLatest", ctx, mock.Anything).Return([]risk.Assessment{}, nil)
		assessmentRepo.On("CategoryAnalysis", ctx).Return([]risk.CategoryRisk{}, nil)
		assessmentRepo.On("FindHighRisk", ctx, risk.BandHighThreshold).Return([]risk.Assessment{}, nil)
		alertRepo.On("FindActive", ctx, 10).Return([]risk.Alert{}, nil)

		resp, err := service.Dashboard(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Summary.TotalProducts)
		assert.Equal(t, 0.0, resp.Summary.RiskPercentage)
		assert.Equal(t, 0.0, resp.Summary.AverageScore)
		assert.Equal(t, 0.0, resp.PotentialLostSales)
		assessmentRepo.AssertNotCalled(t, "AverageLatestScore", mock.Anything)
	})

	t.Run("lost sales failure does not break the dashboard", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		alertRepo := new(MockAlertRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)

		service := newDashboardService(assessmentRepo, alertRepo, productRepo, inventoryRepo)

		assessmentRepo.On("CountLatestByBand", ctx).Return(risk.BandCounts{Low: 1}, nil)
		assessmentRepo.On("AverageLatestScore", ctx).Return(0.1, nil)
		assessmentRepo.On("FindLatest", ctx, mock.Anything).Return([]risk.Assessment{}, nil)
		assessmentRepo.On("CategoryAnalysis", ctx).Return([]risk.CategoryRisk{}, nil)
		assessmentRepo.On("FindHighRisk", ctx, risk.BandHighThreshold).Return([]risk.Assessment{}, assert.AnError)
		alertRepo.On("FindActive", ctx, 10).Return([]risk.Alert{}, nil)

		resp, err := service.Dashboard(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0.0, resp.PotentialLostSales)
	})
}
