package risk

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"github.com/stocksense/backend/internal/ml"
)

func newTestProduct(t *testing.T, code string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(code, "Widget", "Electronics", decimal.NewFromInt(50), 7)
	require.NoError(t, err)
	require.NoError(t, product.SetMinStock(10))
	product.ClearDomainEvents()
	return product
}

func newTestLevel(t *testing.T, productID uuid.UUID, stock int) *inventory.InventoryLevel {
	t.Helper()
	level, err := inventory.NewInventoryLevel(productID, stock, 10, 24)
	require.NoError(t, err)
	return level
}

func newTestStats(productID uuid.UUID, avgDemand float64) *inventory.DemandStats {
	return &inventory.DemandStats{
		ProductID:         productID,
		Days:              90,
		AvgDailyDemand:    avgDemand,
		DemandStd:         avgDemand * 0.2,
		MaxDailyDemand:    int(avgDemand * 2),
		WeekendSalesRatio: 0.3,
		HolidaySalesRatio: 0.2,
	}
}

func newPredictionService(
	assessmentRepo *MockAssessmentRepository,
	modelRepo *MockModelVersionRepository,
	productRepo *MockProductRepository,
	inventoryRepo *MockInventoryRepository,
	demandRepo *MockDemandRepository,
	artifacts *MockArtifactStore,
	cache *MockAssessmentCache,
) *PredictionService {
	return NewPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache, nil)
}

// trainTestModel fits a small model on synthetic snapshots so artifact
// round-trips can be exercised end to end
func trainTestModel(t *testing.T) ([]byte, *risk.ModelVersion) {
	t.Helper()

	dataset := ml.Dataset{}
	for i := 0; i < 30; i++ {
		stock := 500
		label := 0
		if i%2 == 0 {
			stock = 2
			label = 1
		}
		dataset.Snapshots = append(dataset.Snapshots, ml.ProductSnapshot{
			Price:          50,
			LeadTimeDays:   7,
			MinStock:       10,
			SeasonalFactor: 1,
			Category:       "Electronics",
			Subcategory:    "Audio",
			AvgDailyDemand: 10,
			DemandStd:      2,
			MaxDailyDemand: 20,
			CurrentStock:   stock,
		})
		dataset.Labels = append(dataset.Labels, label)
	}

	model, err := ml.Train(dataset, ml.TrainConfig{Family: ml.FamilyLogistic, Seed: 1})
	require.NoError(t, err)

	artifact, err := ml.EncodeArtifact(model)
	require.NoError(t, err)

	version, err := risk.NewModelVersion(risk.ModelFamilyLogistic, model.Metrics.AUC, model.Metrics.Accuracy, 30, "models/test.json")
	require.NoError(t, err)

	return artifact, version
}

func TestPredictionService_AssessProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("scores with heuristic when no model is active", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)
		publisher := new(MockEventPublisher)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)
		service.SetEventPublisher(publisher)

		product := newTestProduct(t, "WIDGET-001")
		level := newTestLevel(t, product.ID, 10)

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		inventoryRepo.On("FindByProductID", ctx, product.ID).Return(level, nil)
		demandRepo.On("StatsByProduct", ctx, product.ID).Return(newTestStats(product.ID, 10), nil)
		modelRepo.On("FindActive", ctx).Return(nil, shared.ErrNoActiveModel)
		assessmentRepo.On("Save", ctx, mock.AnythingOfType("*risk.Assessment")).Return(nil)
		cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := service.AssessProduct(ctx, product.ID)

		require.NoError(t, err)
		// 10 units at 10/day is one day of coverage against a 7 day lead time
		assert.InDelta(t, 1-1.0/14.0, resp.Score, 0.001)
		assert.Equal(t, "high", resp.Band)
		assert.True(t, resp.HighRisk)
		assert.Equal(t, risk.HeuristicModelVersion, resp.ModelVersion)
		assert.NotEmpty(t, resp.Recommendations)
		assessmentRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("scores with the active model when one is loaded", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		artifact, version := trainTestModel(t)
		product := newTestProduct(t, "WIDGET-002")
		level := newTestLevel(t, product.ID, 500)

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		inventoryRepo.On("FindByProductID", ctx, product.ID).Return(level, nil)
		demandRepo.On("StatsByProduct", ctx, product.ID).Return(newTestStats(product.ID, 10), nil)
		modelRepo.On("FindActive", ctx).Return(version, nil)
		artifacts.On("Get", ctx, "models/test.json").Return(artifact, nil)
		assessmentRepo.On("Save", ctx, mock.AnythingOfType("*risk.Assessment")).Return(nil)
		cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)

		resp, err := service.AssessProduct(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, version.Version, resp.ModelVersion)
		assert.GreaterOrEqual(t, resp.Score, 0.0)
		assert.LessOrEqual(t, resp.Score, 1.0)
		artifacts.AssertExpectations(t)
	})

	t.Run("caches the decoded model across calls", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		artifact, version := trainTestModel(t)
		product := newTestProduct(t, "WIDGET-003")
		level := newTestLevel(t, product.ID, 100)

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		inventoryRepo.On("FindByProductID", ctx, product.ID).Return(level, nil)
		demandRepo.On("StatsByProduct", ctx, product.ID).Return(newTestStats(product.ID, 10), nil)
		modelRepo.On("FindActive", ctx).Return(version, nil)
		artifacts.On("Get", ctx, "models/test.json").Return(artifact, nil).Once()
		assessmentRepo.On("Save", ctx, mock.AnythingOfType("*risk.Assessment")).Return(nil)
		cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)

		_, err := service.AssessProduct(ctx, product.ID)
		require.NoError(t, err)

		// Second call must not refetch the artifact
		_, err = service.AssessProduct(ctx, product.ID)
		require.NoError(t, err)
		artifacts.AssertExpectations(t)
	})

	t.Run("returns not found for unknown product", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		productID := uuid.New()
		productRepo.On("FindByID", ctx, productID).Return(nil, shared.ErrNotFound)

		_, err := service.AssessProduct(ctx, productID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPredictionService_AssessAdhoc(t *testing.T) {
	ctx := context.Background()

	assessmentRepo := new(MockAssessmentRepository)
	modelRepo := new(MockModelVersionRepository)
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)
	artifacts := new(MockArtifactStore)
	cache := new(MockAssessmentCache)

	service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)
	modelRepo.On("FindActive", ctx).Return(nil, shared.ErrNoActiveModel)

	t.Run("empty stock scores as maximum risk", func(t *testing.T) {
		resp, err := service.AssessAdhoc(ctx, AdhocAssessRequest{ProductCode: "ADHOC-1"})

		require.NoError(t, err)
		assert.Equal(t, 1.0, resp.Score)
		assert.Equal(t, "high", resp.Band)
		assert.True(t, resp.HighRisk)
		assert.Equal(t, risk.HeuristicModelVersion, resp.ModelVersion)
	})

	t.Run("ample stock scores as low risk", func(t *testing.T) {
		demand := 2.0
		resp, err := service.AssessAdhoc(ctx, AdhocAssessRequest{
			CurrentStock:   500,
			AvgDailyDemand: &demand,
		})

		require.NoError(t, err)
		assert.Equal(t, 0.0, resp.Score)
		assert.Equal(t, "low", resp.Band)
		assert.False(t, resp.HighRisk)
		assert.InDelta(t, 250.0, resp.StockDays, 0.001)
	})

	t.Run("nothing is persisted", func(t *testing.T) {
		_, err := service.AssessAdhoc(ctx, AdhocAssessRequest{CurrentStock: 5})

		require.NoError(t, err)
		assessmentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPredictionService_AssessAll(t *testing.T) {
	ctx := context.Background()

	assessmentRepo := new(MockAssessmentRepository)
	modelRepo := new(MockModelVersionRepository)
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)
	artifacts := new(MockArtifactStore)
	cache := new(MockAssessmentCache)
	publisher := new(MockEventPublisher)

	service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)
	service.SetEventPublisher(publisher)

	riskyProduct := newTestProduct(t, "RISKY-001")
	safeProduct := newTestProduct(t, "SAFE-001")
	products := []catalog.Product{*riskyProduct, *safeProduct}

	riskyLevel := newTestLevel(t, riskyProduct.ID, 5)
	safeLevel := newTestLevel(t, safeProduct.ID, 500)
	levels := []inventory.InventoryLevel{*riskyLevel, *safeLevel}

	stats := map[uuid.UUID]inventory.DemandStats{
		riskyProduct.ID: *newTestStats(riskyProduct.ID, 10),
		safeProduct.ID:  *newTestStats(safeProduct.ID, 10),
	}

	productRepo.On("FindActive", ctx, mock.Anything).Return(products, nil)
	inventoryRepo.On("FindByProductIDs", ctx, mock.Anything).Return(levels, nil)
	demandRepo.On("StatsAll", ctx).Return(stats, nil)
	modelRepo.On("FindActive", ctx).Return(nil, shared.ErrNoActiveModel)
	assessmentRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)
	cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := service.AssessAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.HighRiskCount)
	assert.Equal(t, risk.HeuristicModelVersion, resp.ModelVersion)
	require.Len(t, resp.Assessments, 2)
	// Sorted by score descending
	assert.Equal(t, "RISKY-001", resp.Assessments[0].ProductCode)
	assert.Greater(t, resp.Assessments[0].Score, resp.Assessments[1].Score)
	assessmentRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestPredictionService_GetLatest(t *testing.T) {
	ctx := context.Background()

	t.Run("serves from cache on hit", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		productID := uuid.New()
		assessment, err := risk.NewAssessment(productID, "WIDGET-001", 0.4, risk.HeuristicModelVersion, "", "")
		require.NoError(t, err)

		cache.On("GetLatest", ctx, productID).Return(assessment, nil)

		resp, err := service.GetLatest(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, 0.4, resp.Score)
		assessmentRepo.AssertNotCalled(t, "FindLatestByProduct", mock.Anything, mock.Anything)
	})

	t.Run("falls back to repository on miss and refills cache", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		productID := uuid.New()
		assessment, err := risk.NewAssessment(productID, "WIDGET-001", 0.2, risk.HeuristicModelVersion, "", "")
		require.NoError(t, err)

		cache.On("GetLatest", ctx, productID).Return(nil, nil)
		assessmentRepo.On("FindLatestByProduct", ctx, productID).Return(assessment, nil)
		cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)

		resp, err := service.GetLatest(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, 0.2, resp.Score)
		cache.AssertExpectations(t)
	})
}

func TestPredictionService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("list latest applies score-descending defaults", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		assessmentRepo.On("FindLatest", ctx, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "score" && f.OrderDir == "desc"
		})).Return([]risk.Assessment{}, nil)

		_, err := service.ListLatest(ctx, AssessmentListFilter{})

		require.NoError(t, err)
		assessmentRepo.AssertExpectations(t)
	})

	t.Run("high risk defaults to the high band threshold", func(t *testing.T) {
		assessmentRepo := new(MockAssessmentRepository)
		modelRepo := new(MockModelVersionRepository)
		productRepo := new(MockProductRepository)
		inventoryRepo := new(MockInventoryRepository)
		demandRepo := new(MockDemandRepository)
		artifacts := new(MockArtifactStore)
		cache := new(MockAssessmentCache)

		service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

		assessmentRepo.On("FindHighRisk", ctx, risk.BandHighThreshold).Return([]risk.Assessment{}, nil)

		_, err := service.HighRisk(ctx, 0)

		require.NoError(t, err)
		assessmentRepo.AssertExpectations(t)
	})
}

func TestHeuristicScore(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		demand   float64
		leadTime int
		want     float64
	}{
		{"no stock is maximum risk", 0, 10, 7, 1.0},
		{"one lead time of coverage is half risk", 70, 10, 7, 0.5},
		{"two lead times of coverage is zero risk", 140, 10, 7, 0.0},
		{"excess coverage clamps at zero", 1000, 10, 7, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := ml.ProductSnapshot{
				CurrentStock:   tt.stock,
				AvgDailyDemand: tt.demand,
				LeadTimeDays:   tt.leadTime,
			}
			assert.InDelta(t, tt.want, heuristicScore(snapshot), 0.001)
		})
	}
}

func TestBuildSnapshot(t *testing.T) {
	t.Run("uses demand history when present", func(t *testing.T) {
		product := newTestProduct(t, "WIDGET-010")
		level := newTestLevel(t, product.ID, 42)
		stats := newTestStats(product.ID, 6.5)

		snapshot := buildSnapshot(product, level, stats, level.CreatedAt)

		assert.Equal(t, 42, snapshot.CurrentStock)
		assert.Equal(t, 6.5, snapshot.AvgDailyDemand)
		assert.Equal(t, 50.0, snapshot.Price)
		assert.Equal(t, "Electronics", snapshot.Category)
	})

	t.Run("falls back to neutral defaults without history", func(t *testing.T) {
		product := newTestProduct(t, "WIDGET-011")
		level := newTestLevel(t, product.ID, 42)

		snapshot := buildSnapshot(product, level, nil, level.CreatedAt)

		assert.Equal(t, defaultAvgDailyDemand, snapshot.AvgDailyDemand)
		assert.Equal(t, defaultDemandStd, snapshot.DemandStd)
		assert.Equal(t, defaultSalesRatio, snapshot.WeekendSalesRatio)
	})

	t.Run("tolerates a missing inventory level", func(t *testing.T) {
		product := newTestProduct(t, "WIDGET-012")

		snapshot := buildSnapshot(product, nil, nil, product.CreatedAt)

		assert.Equal(t, 0, snapshot.CurrentStock)
	})
}

func TestRecommendationRoundTrip(t *testing.T) {
	recommendations := []string{"URGENT: Place emergency order immediately", "Stock coverage: 1.0 days"}
	encoded := encodeRecommendations(recommendations)
	assert.Equal(t, recommendations, decodeRecommendations(encoded))

	assert.Equal(t, "[]", encodeRecommendations(nil))
	assert.Empty(t, decodeRecommendations(""))
	assert.Empty(t, decodeRecommendations("not json"))
}

func TestPredictionService_ReloadModel(t *testing.T) {
	ctx := context.Background()

	assessmentRepo := new(MockAssessmentRepository)
	modelRepo := new(MockModelVersionRepository)
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)
	artifacts := new(MockArtifactStore)
	cache := new(MockAssessmentCache)

	service := newPredictionService(assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, artifacts, cache)

	artifact, version := trainTestModel(t)
	product := newTestProduct(t, "WIDGET-020")
	level := newTestLevel(t, product.ID, 100)

	productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	inventoryRepo.On("FindByProductID", ctx, product.ID).Return(level, nil)
	demandRepo.On("StatsByProduct", ctx, product.ID).Return(newTestStats(product.ID, 10), nil)
	modelRepo.On("FindActive", ctx).Return(version, nil)
	artifacts.On("Get", ctx, "models/test.json").Return(artifact, nil).Twice()
	assessmentRepo.On("Save", ctx, mock.AnythingOfType("*risk.Assessment")).Return(nil)
	cache.On("SetLatest", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := service.AssessProduct(ctx, product.ID)
	require.NoError(t, err)

	service.ReloadModel()

	// Same version must be fetched again after the reload
	_, err = service.AssessProduct(ctx, product.ID)
	require.NoError(t, err)
	artifacts.AssertExpectations(t)
}
